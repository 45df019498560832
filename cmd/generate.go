package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/examgen"
	"github.com/alexandernovadev/languagesai/internal/generation"
	"github.com/alexandernovadev/languagesai/internal/llm"
	"github.com/alexandernovadev/languagesai/internal/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an exam, optionally review, correct and save it",
	Example: `  languagesai generate --level B1 --topics "present perfect,past simple" --types unique,multiple --count 10 --validate --save
  languagesai generate --language spanish --level A2 --topics "ser vs estar" --types fillInBlank --count 5 --validate --correct --save`,
	RunE: runGenerate,
}

func init() {
	def := exam.DefaultParameters()
	f := generateCmd.Flags()
	f.String("language", def.Language, "Language the exam tests")
	f.String("level", string(def.Difficulty), "Certification level (A1, A2, B1, B2, C1, C2)")
	f.StringSlice("topics", nil, "Grammar topics to cover")
	f.StringSlice("types", nil, "Question types (multiple, unique, fillInBlank, translateText)")
	f.Int("count", def.QuestionCount, fmt.Sprintf("Number of questions (%d-%d)", exam.MinQuestionCount, exam.MaxQuestionCount))
	f.String("topic", "", "Optional theme for the questions")
	f.Bool("validate", false, "Ask the reviewer to score the generated exam")
	f.Bool("correct", false, "Rewrite the exam from the review (implies --validate)")
	f.Bool("save", false, "Store the exam so it can be taken")
	f.Bool("json", false, "Print the exam as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	provider, err := llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), logger.Component(e.log, "llm"))
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}

	f := cmd.Flags()
	language, _ := f.GetString("language")
	level, _ := f.GetString("level")
	topics, _ := f.GetStringSlice("topics")
	types, _ := f.GetStringSlice("types")
	count, _ := f.GetInt("count")
	topic, _ := f.GetString("topic")
	doValidate, _ := f.GetBool("validate")
	doCorrect, _ := f.GetBool("correct")
	doSave, _ := f.GetBool("save")
	asJSON, _ := f.GetBool("json")

	sess := generation.NewSession(
		examgen.New(provider, examgen.DefaultConfig()),
		e.store.Exams(),
		exam.DefaultParameters(),
		logger.Component(e.log, "generation"),
	)
	for _, p := range []struct {
		key   string
		value any
	}{
		{"language", language},
		{"difficulty", strings.ToUpper(level)},
		{"grammarTopics", topics},
		{"questionTypes", types},
		{"questionCount", count},
		{"topic", topic},
	} {
		if err := sess.UpdateParam(p.key, p.value); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()

	generated, err := sess.Generate(ctx)
	if err != nil {
		return llmFailure("generate", err)
	}

	if doValidate || doCorrect {
		v, err := sess.Validate(ctx)
		if err != nil {
			return llmFailure("validate", err)
		}
		printValidation(cmd.ErrOrStderr(), v)

		if doCorrect {
			generated, err = sess.Correct(ctx)
			if err != nil {
				return llmFailure("correct", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Exam corrected from the review.")
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(generated); err != nil {
			return err
		}
	} else {
		printExam(out, generated, true)
	}

	if doSave {
		saved, err := sess.Save(ctx)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved exam %s. Take it with: languagesai take %s\n", saved.ID, saved.ID)
	}
	return nil
}

func printExam(w io.Writer, e *exam.GeneratedExam, withAnswers bool) {
	fmt.Fprintln(w, e.Title)
	fmt.Fprintln(w, strings.Repeat("─", min(max(len(e.Title), 20), 72)))
	for i, q := range e.Questions {
		fmt.Fprintf(w, "\n%d. [%s] %s\n", i+1, q.Type, q.Text)
		correct := q.CorrectSet()
		for j, opt := range q.Options {
			mark := " "
			if withAnswers && slices.Contains(correct, j) {
				mark = "*"
			}
			fmt.Fprintf(w, "   %s %c) %s\n", mark, 'a'+j, opt)
		}
		if withAnswers && !q.HasOptions() {
			fmt.Fprintf(w, "   Answer: %s\n", q.CorrectAnswer)
		}
		if withAnswers && q.Explanation != "" {
			fmt.Fprintf(w, "   (%s) %s\n", q.GrammarTopic, q.Explanation)
		}
	}
}

func printValidation(w io.Writer, v *exam.ValidationResult) {
	verdict := "needs work"
	if v.Valid {
		verdict = "valid"
	}
	thumb := ""
	if v.ThumbsUp {
		thumb = "  👍"
	}
	fmt.Fprintf(w, "Review: %s, score %d/100%s\n", verdict, v.Score, thumb)
	if v.Feedback != "" {
		fmt.Fprintf(w, "  %s\n", v.Feedback)
	}
	for _, is := range v.Issues {
		fmt.Fprintf(w, "  - Q%d [%s] %s\n", is.QuestionIndex+1, is.Type, is.Message)
	}
	for _, s := range v.Suggestions {
		fmt.Fprintf(w, "  * %s\n", s)
	}
}

// llmFailure prefixes err with a readable explanation when it is a known
// provider failure.
func llmFailure(step string, err error) error {
	if msg := llm.Describe(err); msg != err.Error() {
		return fmt.Errorf("%s: %s\n  cause: %w", step, msg, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}
