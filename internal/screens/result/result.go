// Package result shows a graded attempt.
package result

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/screen"
	"github.com/alexandernovadev/languagesai/internal/ui/layout"
	"github.com/alexandernovadev/languagesai/internal/ui/theme"
)

// ResultScreen displays the score and a per-question breakdown.
type ResultScreen struct {
	exam    *exam.Exam
	attempt *exam.Attempt
	offset  int
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)
var _ screen.StatusProvider = (*ResultScreen)(nil)

func New(e *exam.Exam, a *exam.Attempt) *ResultScreen {
	return &ResultScreen{exam: e, attempt: a}
}

func (s *ResultScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultScreen) Title() string {
	return "Results"
}

func (s *ResultScreen) Status() string {
	if s.attempt == nil {
		return ""
	}
	return fmt.Sprintf("%d%% ", s.attempt.Score)
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Enter/Q", Description: "Done"},
	}
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "enter", "esc", "q":
		return s, tea.Quit
	case "up", "k":
		s.offset = max(s.offset-1, 0)
	case "down", "j":
		if s.attempt != nil {
			s.offset = min(s.offset+1, max(len(s.attempt.Results)-1, 0))
		}
	}
	return s, nil
}

func (s *ResultScreen) View(width, height int) string {
	if s.exam == nil || s.attempt == nil {
		return ""
	}

	var b strings.Builder

	correct := 0
	for _, r := range s.attempt.Results {
		if r.Correct {
			correct++
		}
	}

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(fmt.Sprintf("Score: %d%%", s.attempt.Score)))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d of %d correct", correct, len(s.exam.Questions))))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", max(min(width-8, 60), 0)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")

	textWidth := max(width-8, 20)
	for _, r := range s.attempt.Results[min(s.offset, len(s.attempt.Results)):] {
		if r.QuestionIndex < 0 || r.QuestionIndex >= len(s.exam.Questions) {
			continue
		}
		q := s.exam.Questions[r.QuestionIndex]

		mark := theme.Correct.Render("✓")
		if !r.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		b.WriteString(fmt.Sprintf("  %s %d. ", mark, r.QuestionIndex+1))
		b.WriteString(lipgloss.NewStyle().Width(textWidth).Render(theme.Body.Render(q.Text)))
		b.WriteString("\n")

		b.WriteString(theme.Hint.Render("      Your answer: " + DescribeAnswer(q, r.Answer)))
		b.WriteString("\n")
		if !r.Correct {
			b.WriteString(theme.Correct.Render("      Correct: " + DescribeCorrect(q)))
			b.WriteString("\n")
		}
		if q.Explanation != "" {
			b.WriteString(lipgloss.NewStyle().Width(textWidth).Foreground(theme.TextDim).
				Render("      " + q.Explanation))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// DescribeAnswer renders an answer using option text where the question
// has options.
func DescribeAnswer(q exam.Question, a exam.Answer) string {
	if a.IsEmpty() {
		return "(no answer)"
	}
	if text, ok := a.Text(); ok {
		return text
	}
	if i, ok := a.Index(); ok {
		return optionText(q, i)
	}
	parts := make([]string, 0, len(a.Indices()))
	for _, i := range a.Indices() {
		parts = append(parts, optionText(q, i))
	}
	return strings.Join(parts, ", ")
}

// DescribeCorrect renders the expected answer of a question.
func DescribeCorrect(q exam.Question) string {
	if !q.HasOptions() {
		return q.CorrectAnswer
	}
	set := q.CorrectSet()
	parts := make([]string, 0, len(set))
	for _, i := range set {
		parts = append(parts, optionText(q, i))
	}
	return strings.Join(parts, ", ")
}

func optionText(q exam.Question, i int) string {
	if i < 0 || i >= len(q.Options) {
		return fmt.Sprintf("#%d", i+1)
	}
	return q.Options[i]
}
