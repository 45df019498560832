package main

import (
	"os"

	"github.com/alexandernovadev/languagesai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
