package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexandernovadev/languagesai/internal/app"
	"github.com/alexandernovadev/languagesai/internal/attempt"
	"github.com/alexandernovadev/languagesai/internal/logger"
	attemptscreen "github.com/alexandernovadev/languagesai/internal/screens/attempt"
)

var takeCmd = &cobra.Command{
	Use:   "take <exam-id>",
	Short: "Take a stored exam in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runTake,
}

func init() {
	f := takeCmd.Flags()
	f.Int("minutes", 0, "Time limit in minutes (0 = untimed)")
	f.Bool("shuffle", false, "Shuffle the order options are shown in")
	f.Bool("resume", false, "Continue the saved draft instead of starting over")
	f.String("log-file", "", "Write logs to this file while the UI is running")
}

func runTake(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	examID := args[0]

	minutes, _ := cmd.Flags().GetInt("minutes")
	shuffle, _ := cmd.Flags().GetBool("shuffle")
	resume, _ := cmd.Flags().GetBool("resume")
	logFile, _ := cmd.Flags().GetString("log-file")

	if minutes < 0 {
		return fmt.Errorf("--minutes must not be negative")
	}

	// The UI owns the terminal, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	e, err := setup(cmd, logOut)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.UserID == "" {
		return fmt.Errorf("pass --user or set LANGAI_USER: %w", attempt.ErrNotAuthenticated)
	}

	drafts, closeDrafts, err := e.openDrafts(ctx)
	if err != nil {
		return fmt.Errorf("open drafts: %w", err)
	}
	defer closeDrafts()

	sess := attempt.NewSession(e.store.Exams(), drafts, e.cfg.UserID, logger.Component(e.log, "attempt"))

	if resume {
		return app.Run(attemptscreen.NewResume(ctx, sess, examID))
	}
	return app.Run(attemptscreen.New(ctx, sess, examID, attempt.StartOptions{
		TimeLimitMinutes: minutes,
		Shuffle:          shuffle,
	}))
}
