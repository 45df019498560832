// Package attempt is the terminal screen for taking an exam. It drives an
// attempt.Session and provides its once-per-second clock.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"

	sess "github.com/alexandernovadev/languagesai/internal/attempt"
	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/router"
	"github.com/alexandernovadev/languagesai/internal/screen"
	"github.com/alexandernovadev/languagesai/internal/screens/result"
	"github.com/alexandernovadev/languagesai/internal/ui/components"
	"github.com/alexandernovadev/languagesai/internal/ui/layout"
)

// Screen shows one question at a time with free navigation.
type Screen struct {
	ctx    context.Context
	sess   *sess.Session
	examID string
	opts   sess.StartOptions
	resume bool

	state         sess.State
	ready         bool
	cursor        int
	input         components.TextInput
	confirmSubmit bool
	confirmQuit   bool
	notice        string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New returns a screen that starts a new attempt at examID.
func New(ctx context.Context, s *sess.Session, examID string, opts sess.StartOptions) *Screen {
	return &Screen{
		ctx:    ctx,
		sess:   s,
		examID: examID,
		opts:   opts,
		input:  components.NewTextInput("Type your answer...", 500),
	}
}

// NewResume returns a screen that restores the saved draft of examID.
func NewResume(ctx context.Context, s *sess.Session, examID string) *Screen {
	scr := New(ctx, s, examID, sess.StartOptions{})
	scr.resume = true
	return scr
}

func (s *Screen) Init() tea.Cmd {
	ctx, session, examID, opts, resume := s.ctx, s.sess, s.examID, s.opts, s.resume
	return tea.Batch(
		s.input.Init(),
		func() tea.Msg {
			if resume {
				return startedMsg{Err: session.Resume(ctx, examID)}
			}
			return startedMsg{Err: session.Start(ctx, examID, opts)}
		},
	)
}

func (s *Screen) Title() string {
	if s.state.Exam != nil {
		return s.state.Exam.Title
	}
	return "Exam"
}

// Status shows the clock for timed attempts and the answered count.
func (s *Screen) Status() string {
	if s.state.Exam == nil {
		return ""
	}
	answered := fmt.Sprintf("%d/%d", len(s.state.Answered), len(s.state.Exam.Questions))
	if !s.state.Timed {
		return answered + " "
	}
	return fmt.Sprintf("%s  ⏱ %s ", answered, layout.FormatClock(s.state.TimeRemaining))
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.confirmSubmit || s.confirmQuit:
		return []layout.KeyHint{{Key: "Y", Description: "Yes"}, {Key: "N", Description: "No"}}
	case !s.ready:
		return nil
	case !s.state.InProgress():
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}

	hints := []layout.KeyHint{{Key: "Tab/Shift+Tab", Description: "Next/Prev"}}
	if q, ok := s.question(); ok && q.HasOptions() {
		verb := "Choose"
		if q.Type == exam.TypeMultiple {
			verb = "Toggle"
		}
		hints = append(hints, layout.KeyHint{Key: "↑↓ Space", Description: verb})
	} else {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Save answer"})
	}
	return append(hints,
		layout.KeyHint{Key: "Ctrl+S", Description: "Submit"},
		layout.KeyHint{Key: "Esc", Description: "Leave"},
	)
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		return s.handleStarted(msg)
	case clockTickMsg:
		return s, s.tickSession()
	case tickDoneMsg:
		return s.handleTickDone(msg)
	case submittedMsg:
		return s.handleSubmitted(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.ready && s.state.InProgress() && !s.onOptions() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) refresh() {
	s.state = s.sess.Snapshot()
}

func (s *Screen) question() (exam.Question, bool) {
	if s.state.Exam == nil || s.state.Current >= len(s.state.Exam.Questions) {
		return exam.Question{}, false
	}
	return s.state.Exam.Questions[s.state.Current], true
}

func (s *Screen) onOptions() bool {
	q, ok := s.question()
	return ok && q.HasOptions()
}

func (s *Screen) handleStarted(msg startedMsg) (screen.Screen, tea.Cmd) {
	s.refresh()
	if msg.Err != nil {
		s.notice = msg.Err.Error()
		return s, nil
	}
	s.ready = true
	if s.state.Finished {
		return s, s.showResult()
	}
	s.loadQuestion()
	if s.state.Timed || s.state.Finishing {
		return s, clockTick()
	}
	return s, nil
}

func (s *Screen) tickSession() tea.Cmd {
	ctx, session := s.ctx, s.sess
	return func() tea.Msg {
		return tickDoneMsg{Err: session.Tick(ctx)}
	}
}

func (s *Screen) handleTickDone(msg tickDoneMsg) (screen.Screen, tea.Cmd) {
	s.refresh()
	if s.state.Exam == nil {
		return s, nil
	}
	if s.state.Finished {
		return s, s.showResult()
	}

	var autoErr *sess.AutoSubmitError
	if errors.As(msg.Err, &autoErr) {
		s.notice = autoErr.Error()
	}
	if s.state.Finishing {
		s.confirmSubmit = false
	}
	return s, clockTick()
}

func (s *Screen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	s.refresh()
	switch {
	case msg.Err == nil:
		return s, s.showResult()
	case errors.Is(msg.Err, sess.ErrAlreadySubmitting), errors.Is(msg.Err, sess.ErrStale):
		return s, nil
	}
	s.notice = "Submit failed, your answers are kept. Press Ctrl+S to retry. (" + msg.Err.Error() + ")"
	return s, nil
}

func (s *Screen) showResult() tea.Cmd {
	st := s.state
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: result.New(st.Exam, st.Result)}
	}
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.commitText()
			s.sess.Abandon()
			return s, tea.Quit
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if s.confirmSubmit {
		switch key {
		case "y", "Y":
			s.confirmSubmit = false
			return s, s.submit()
		case "n", "N", "esc":
			s.confirmSubmit = false
		}
		return s, nil
	}

	if !s.ready {
		if s.notice != "" {
			return s, tea.Quit
		}
		return s, nil
	}
	if !s.state.InProgress() {
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "ctrl+s":
		s.commitText()
		s.confirmSubmit = true
		return s, nil
	case "tab", "pgdown", "ctrl+n":
		s.navigate(s.state.Current + 1)
		return s, nil
	case "shift+tab", "pgup", "ctrl+p":
		s.navigate(s.state.Current - 1)
		return s, nil
	}

	if s.onOptions() {
		return s.handleOptionKey(key)
	}

	if key == "enter" {
		s.commitText()
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) handleOptionKey(key string) (screen.Screen, tea.Cmd) {
	q, _ := s.question()
	switch key {
	case "up", "k":
		s.cursor = max(s.cursor-1, 0)
	case "down", "j":
		s.cursor = min(s.cursor+1, len(q.Options)-1)
	case "enter", "space":
		s.choose(s.cursor)
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(q.Options) {
			s.cursor = n - 1
			s.choose(s.cursor)
		}
	}
	return s, nil
}

func (s *Screen) choose(display int) {
	q, _ := s.question()
	var err error
	if q.Type == exam.TypeMultiple {
		err = s.sess.ToggleDisplayedOption(s.ctx, s.state.Current, display)
	} else {
		err = s.sess.SelectDisplayedOption(s.ctx, s.state.Current, display)
	}
	s.report(err)
}

// commitText stores the text box as the answer to the current question
// when it changed.
func (s *Screen) commitText() {
	q, ok := s.question()
	if !ok || q.HasOptions() || !s.state.InProgress() {
		return
	}
	value := s.input.Value()
	prev, _ := s.state.Answers[s.state.Current].Text()
	if value == prev {
		return
	}
	s.report(s.sess.SetAnswer(s.ctx, s.state.Current, exam.TextAnswer(value)))
}

func (s *Screen) navigate(q int) {
	if s.state.Exam == nil || q < 0 || q >= len(s.state.Exam.Questions) {
		return
	}
	s.commitText()
	s.report(s.sess.Navigate(s.ctx, q))
	s.loadQuestion()
}

// loadQuestion resets the cursor and text box for the current question.
func (s *Screen) loadQuestion() {
	s.cursor = 0
	text, _ := s.state.Answers[s.state.Current].Text()
	s.input.SetValue(text)
}

func (s *Screen) report(err error) {
	s.refresh()
	if err != nil {
		s.notice = err.Error()
		return
	}
	s.notice = ""
}

func (s *Screen) submit() tea.Cmd {
	ctx, session := s.ctx, s.sess
	return func() tea.Msg {
		a, err := session.Submit(ctx)
		return submittedMsg{Attempt: a, Err: err}
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}
