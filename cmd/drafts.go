package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexandernovadev/languagesai/internal/ui/layout"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect or discard saved attempt drafts",
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <exam-id>",
	Short: "Show the latest draft for an exam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.Close()

		drafts, closeDrafts, err := e.openDrafts(ctx)
		if err != nil {
			return fmt.Errorf("open drafts: %w", err)
		}
		defer closeDrafts()

		d, err := drafts.Load(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load draft: %w", err)
		}
		if d == nil {
			fmt.Println("No draft saved for this exam.")
			return nil
		}

		fmt.Printf("Attempt:   %s\n", d.AttemptID)
		fmt.Printf("Saved:     %s\n", d.SavedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Question:  %d\n", d.CurrentQuestion+1)
		fmt.Printf("Answered:  %d\n", len(d.Answered))
		if d.TimeLimitMinutes > 0 {
			fmt.Printf("Time left: %s of %dm\n", layout.FormatClock(d.TimeRemaining), d.TimeLimitMinutes)
		}
		fmt.Printf("Shuffle:   %v\n", d.Shuffle)
		for _, q := range d.AnsweredList() {
			fmt.Printf("  Q%-3d %s\n", q+1, d.Answers[q])
		}

		keys, err := drafts.Keys(ctx, args[0])
		if err != nil {
			return fmt.Errorf("list draft keys: %w", err)
		}
		fmt.Printf("Keys:      %d\n", len(keys))
		return nil
	},
}

var draftsClearCmd = &cobra.Command{
	Use:   "clear <exam-id>",
	Short: "Delete every draft saved for an exam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.Close()

		drafts, closeDrafts, err := e.openDrafts(ctx)
		if err != nil {
			return fmt.Errorf("open drafts: %w", err)
		}
		defer closeDrafts()

		if err := drafts.ClearAll(ctx, args[0]); err != nil {
			return fmt.Errorf("clear drafts: %w", err)
		}
		fmt.Println("Drafts cleared.")
		return nil
	},
}

func init() {
	draftsCmd.AddCommand(draftsShowCmd)
	draftsCmd.AddCommand(draftsClearCmd)
}
