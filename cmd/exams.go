package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/store"
)

var examsCmd = &cobra.Command{
	Use:   "exams",
	Short: "List and inspect stored exams",
}

var examsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored exams, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.Close()

		exams, err := e.store.Exams().List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list exams: %w", err)
		}
		if len(exams) == 0 {
			fmt.Println("No exams yet. Create one with: languagesai generate --save")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-5s  %-3s  %s\n", "ID", "Created", "Level", "Qs", "Title")
		fmt.Println(strings.Repeat("─", 100))
		for _, x := range exams {
			fmt.Printf("%-36s  %-16s  %-5s  %-3d  %s\n",
				x.ID,
				x.CreatedAt.Local().Format("2006-01-02 15:04"),
				x.Parameters.Difficulty,
				len(x.Questions),
				x.Title,
			)
		}
		return nil
	},
}

var examsShowCmd = &cobra.Command{
	Use:   "show <exam-id>",
	Short: "Print an exam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, _ := cmd.Flags().GetBool("answers")

		e, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.Close()

		x, err := e.store.Exams().GetByID(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("exam %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get exam: %w", err)
		}

		p := x.Parameters
		fmt.Printf("ID:        %s\n", x.ID)
		fmt.Printf("Created:   %s\n", x.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Language:  %s (%s)\n", p.Language, p.Difficulty)
		fmt.Printf("Topics:    %s\n", strings.Join(p.GrammarTopics, ", "))
		if p.Topic != "" {
			fmt.Printf("Theme:     %s\n", p.Topic)
		}
		fmt.Println()
		printExam(cmd.OutOrStdout(), &exam.GeneratedExam{Title: x.Title, Questions: x.Questions}, answers)
		return nil
	},
}

var attemptsCmd = &cobra.Command{
	Use:   "attempts <exam-id>",
	Short: "List attempts at an exam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.Close()

		attempts, err := e.store.Exams().ListAttempts(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		if len(attempts) == 0 {
			fmt.Println("No attempts yet.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-12s  %-11s  %-7s  %s\n", "ID", "Started", "User", "Status", "Limit", "Score")
		fmt.Println(strings.Repeat("─", 100))
		for _, a := range attempts {
			limit := "-"
			if a.TimeLimit > 0 {
				limit = fmt.Sprintf("%dm", a.TimeLimit)
			}
			score := "-"
			if a.Status == exam.AttemptSubmitted {
				score = fmt.Sprintf("%d%%", a.Score)
			}
			fmt.Printf("%-36s  %-16s  %-12s  %-11s  %-7s  %s\n",
				a.ID,
				a.StartedAt.Local().Format("2006-01-02 15:04"),
				a.UserID,
				a.Status,
				limit,
				score,
			)
		}
		return nil
	},
}

func init() {
	examsListCmd.Flags().Int("limit", 20, "Maximum number of exams to show")
	examsShowCmd.Flags().Bool("answers", false, "Include answers and explanations")

	examsCmd.AddCommand(examsListCmd)
	examsCmd.AddCommand(examsShowCmd)
}
