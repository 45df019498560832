package attempt

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/ui/components"
	"github.com/alexandernovadev/languagesai/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	if !s.ready {
		if s.notice != "" {
			return theme.ErrorText.Render("Could not open the exam: "+s.notice) +
				"\n\n" + theme.Hint.Render("Press any key to exit.")
		}
		if s.resume {
			return theme.Hint.Render("Restoring your saved answers...")
		}
		return theme.Hint.Render("Starting attempt...")
	}

	q, ok := s.question()
	if !ok {
		return ""
	}

	var b strings.Builder

	b.WriteString(components.ProgressBar{
		Done:  len(s.state.Answered),
		Total: len(s.state.Exam.Questions),
		Width: width - 4,
	}.View())
	b.WriteString("\n")
	b.WriteString(s.renderNav())
	b.WriteString("\n\n")

	header := fmt.Sprintf("Question %d of %d · %s", s.state.Current+1, len(s.state.Exam.Questions), typeLabel(q))
	if q.GrammarTopic != "" {
		header += " · " + q.GrammarTopic
	}
	b.WriteString(theme.Hint.Render(header))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(max(width-6, 20)).Render(theme.Body.Bold(true).Render(q.Text)))
	b.WriteString("\n\n")

	if q.HasOptions() {
		list := components.OptionList{
			Options: q.Options,
			Order:   s.sess.OptionOrder(s.state.Current),
			Chosen:  chosen(s.state.Answers[s.state.Current]),
			Cursor:  s.cursor,
			Multi:   q.Type == exam.TypeMultiple,
		}
		b.WriteString(list.View())
	} else {
		b.WriteString(s.input.View())
		b.WriteString("\n")
		if text, ok := s.state.Answers[s.state.Current].Text(); ok && text != s.input.Value() {
			b.WriteString(theme.Hint.Render("Unsaved changes. Press Enter to keep them."))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(s.renderFooterLine())

	return b.String()
}

// renderNav draws one marker per question: filled when answered, brackets
// around the current one.
func (s *Screen) renderNav() string {
	answered := make(map[int]bool, len(s.state.Answered))
	for _, i := range s.state.Answered {
		answered[i] = true
	}

	parts := make([]string, len(s.state.Exam.Questions))
	for i := range parts {
		mark := "○"
		style := theme.Unselected
		if answered[i] {
			mark = "●"
			style = theme.Chosen
		}
		if i == s.state.Current {
			parts[i] = theme.Cursor.Render("[" + mark + "]")
			continue
		}
		parts[i] = style.Render(" " + mark + " ")
	}
	return "  " + strings.Join(parts, "")
}

func (s *Screen) renderFooterLine() string {
	switch {
	case s.confirmQuit:
		return theme.ErrorText.Render("Leave the exam? Your answers stay saved as a draft. (y/n)")
	case s.confirmSubmit:
		total := len(s.state.Exam.Questions)
		left := total - len(s.state.Answered)
		msg := "Submit your answers? (y/n)"
		if left > 0 {
			msg = fmt.Sprintf("%d of %d questions are unanswered. Submit anyway? (y/n)", left, total)
		}
		return theme.ClockLow.Render(msg)
	case s.state.Submitting:
		return theme.Hint.Render("Submitting...")
	case s.state.Finishing:
		line := theme.ClockLow.Render("Time is up. Submitting your answers...")
		if s.notice != "" {
			line += "\n" + theme.ErrorText.Render(s.notice)
		}
		return line
	case s.notice != "":
		return theme.ErrorText.Render(s.notice)
	case s.state.Timed && s.state.TimeRemaining <= 60:
		return theme.ClockLow.Render(fmt.Sprintf("Less than a minute left (%ds).", s.state.TimeRemaining))
	}
	return ""
}

func typeLabel(q exam.Question) string {
	switch q.Type {
	case exam.TypeMultiple:
		return "select all that apply"
	case exam.TypeUnique:
		return "choose one"
	case exam.TypeFillInBlank:
		if q.HasOptions() {
			return "fill in the blank"
		}
		return "fill in the blank (type it)"
	case exam.TypeTranslateText:
		return "translate"
	}
	return string(q.Type)
}

func chosen(a exam.Answer) []int {
	if i, ok := a.Index(); ok {
		return []int{i}
	}
	return a.Indices()
}
