// Package attempt runs one sitting of a stored exam: answering, the
// countdown, grading and submission.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alexandernovadev/languagesai/internal/draft"
	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/store"
)

// ExamStore reads exams and records attempts.
type ExamStore interface {
	GetByID(ctx context.Context, id string) (*exam.Exam, error)
	StartAttempt(ctx context.Context, examID, userID string, timeLimit int) (*exam.Attempt, error)
	SubmitAttempt(ctx context.Context, sub exam.Submission) (*exam.Attempt, error)
	GetAttempt(ctx context.Context, id string) (*exam.Attempt, error)
}

// DraftStore persists in-progress answers per exam.
type DraftStore interface {
	Load(ctx context.Context, examID string) (*draft.Draft, error)
	Save(ctx context.Context, examID string, d *draft.Draft) error
	ClearAll(ctx context.Context, examID string) error
}

// StartOptions configure a new attempt. A zero time limit means no
// countdown. Shuffle changes the display order of options, never the
// indices that are stored or graded.
type StartOptions struct {
	TimeLimitMinutes int
	Shuffle          bool
}

// Session is one user's attempt at one exam. All methods are safe for
// concurrent use; storage calls for Start, Resume and Submit run without
// holding the lock.
type Session struct {
	exams  ExamStore
	drafts DraftStore
	userID string
	log    zerolog.Logger

	mu         sync.Mutex
	epoch      uint64
	exam       *exam.Exam
	attemptID  string
	opts       StartOptions
	current    int
	answers    map[int]exam.Answer
	answered   map[int]struct{}
	timer      *Timer
	starting   bool
	submitting bool
	finishing  bool
	finished   bool
	err        error
	result     *exam.Attempt
}

// NewSession returns an idle session for userID. An empty userID means
// nobody is signed in and Start will fail.
func NewSession(exams ExamStore, drafts DraftStore, userID string, log zerolog.Logger) *Session {
	s := &Session{
		exams:  exams,
		drafts: drafts,
		userID: userID,
		log:    log.With().Str("component", "attempt").Logger(),
	}
	s.resetLocked()
	return s
}

func (s *Session) resetLocked() {
	s.exam = nil
	s.attemptID = ""
	s.opts = StartOptions{}
	s.current = 0
	s.answers = make(map[int]exam.Answer)
	s.answered = make(map[int]struct{})
	s.timer = NewTimer(0)
	s.starting = false
	s.submitting = false
	s.finishing = false
	s.finished = false
	s.err = nil
	s.result = nil
}

// Start creates a new attempt at examID. Drafts left by earlier attempts at
// the same exam are cleared first. On failure the session stays idle and
// the error is also kept in Err.
func (s *Session) Start(ctx context.Context, examID string, opts StartOptions) error {
	s.mu.Lock()
	if s.starting {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.userID == "" {
		s.err = ErrNotAuthenticated
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.epoch++
	epoch := s.epoch
	s.resetLocked()
	s.starting = true
	s.mu.Unlock()

	e, a, err := s.startRemote(ctx, examID, opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return ErrStale
	}
	s.starting = false
	if err != nil {
		s.err = err
		s.log.Warn().Err(err).Str("exam_id", examID).Msg("start attempt failed")
		return err
	}

	s.exam = e
	s.attemptID = a.ID
	s.opts = opts
	s.timer = NewTimer(opts.TimeLimitMinutes * 60)
	if opts.TimeLimitMinutes > 0 {
		s.timer.Start()
	}
	s.saveDraftLocked(ctx)

	s.log.Info().
		Str("exam_id", e.ID).
		Str("attempt_id", a.ID).
		Int("minutes", opts.TimeLimitMinutes).
		Bool("shuffle", opts.Shuffle).
		Msg("attempt started")
	return nil
}

func (s *Session) startRemote(ctx context.Context, examID string, opts StartOptions) (*exam.Exam, *exam.Attempt, error) {
	e, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.drafts.ClearAll(ctx, examID); err != nil {
		return nil, nil, &TransportError{Op: "clear drafts", Err: err}
	}
	a, err := s.exams.StartAttempt(ctx, examID, s.userID, opts.TimeLimitMinutes)
	if err != nil {
		return nil, nil, &TransportError{Op: "start attempt", Err: err}
	}
	return e, a, nil
}

func (s *Session) loadExam(ctx context.Context, examID string) (*exam.Exam, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExamNotFound, examID)
	}
	if err != nil {
		return nil, &TransportError{Op: "load exam", Err: err}
	}
	return e, nil
}

// Resume restores the latest draft of examID. The attempt it belongs to
// must still be in progress. If the countdown ran out while the draft was
// saved, the answers are submitted right away.
func (s *Session) Resume(ctx context.Context, examID string) error {
	s.mu.Lock()
	if s.starting {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.userID == "" {
		s.err = ErrNotAuthenticated
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.epoch++
	epoch := s.epoch
	s.resetLocked()
	s.starting = true
	s.mu.Unlock()

	e, d, err := s.resumeRemote(ctx, examID)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrStale
	}
	s.starting = false
	if err != nil {
		s.err = err
		s.mu.Unlock()
		return err
	}

	s.exam = e
	s.attemptID = d.AttemptID
	s.opts = StartOptions{TimeLimitMinutes: d.TimeLimitMinutes, Shuffle: d.Shuffle}
	for q, a := range d.Answers {
		if q >= 0 && q < len(e.Questions) {
			s.answers[q] = a
		}
	}
	for q := range d.Answered {
		if _, ok := s.answers[q]; ok {
			s.answered[q] = struct{}{}
		}
	}
	if d.CurrentQuestion >= 0 && d.CurrentQuestion < len(e.Questions) {
		s.current = d.CurrentQuestion
	}

	expired := false
	if d.TimeLimitMinutes > 0 {
		s.timer = NewTimer(d.TimeRemaining)
		s.timer.Start()
		expired = d.TimeRemaining <= 0
	}

	s.log.Info().
		Str("exam_id", e.ID).
		Str("attempt_id", d.AttemptID).
		Int("answered", len(s.answered)).
		Msg("attempt resumed")

	if !expired {
		s.mu.Unlock()
		return nil
	}
	s.finishing = true
	s.mu.Unlock()

	return s.autoSubmit(ctx)
}

func (s *Session) resumeRemote(ctx context.Context, examID string) (*exam.Exam, *draft.Draft, error) {
	d, err := s.drafts.Load(ctx, examID)
	if err != nil {
		return nil, nil, &TransportError{Op: "load draft", Err: err}
	}
	if d == nil || d.AttemptID == "" {
		return nil, nil, ErrNoDraft
	}

	e, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, nil, err
	}

	a, err := s.exams.GetAttempt(ctx, d.AttemptID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNoDraft
	}
	if err != nil {
		return nil, nil, &TransportError{Op: "load attempt", Err: err}
	}
	if a.UserID != s.userID {
		return nil, nil, fmt.Errorf("%w: draft belongs to another user", ErrNotAuthenticated)
	}
	if a.Status != exam.AttemptInProgress {
		return nil, nil, fmt.Errorf("attempt %s: %w", a.ID, ErrNotInProgress)
	}
	return e, d, nil
}

// SetAnswer stores value for question q, keyed by original option indices.
// An empty value marks the question unanswered. Answers may change until
// the attempt finishes or the countdown runs out.
func (s *Session) SetAnswer(ctx context.Context, q int, value exam.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritableLocked(q); err != nil {
		return err
	}
	if err := checkAnswer(s.exam.Questions[q], value); err != nil {
		return fmt.Errorf("question %d: %w", q, err)
	}

	s.setAnswerLocked(q, value)
	s.saveDraftLocked(ctx)
	return nil
}

// SelectDisplayedOption chooses the option shown at displayIndex.
func (s *Session) SelectDisplayedOption(ctx context.Context, q, displayIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig, err := s.originalIndexLocked(q, displayIndex)
	if err != nil {
		return err
	}
	s.setAnswerLocked(q, exam.SingleAnswer(orig))
	s.saveDraftLocked(ctx)
	return nil
}

// ToggleDisplayedOption adds or removes the option shown at displayIndex
// from a multi-select answer.
func (s *Session) ToggleDisplayedOption(ctx context.Context, q, displayIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig, err := s.originalIndexLocked(q, displayIndex)
	if err != nil {
		return err
	}
	s.setAnswerLocked(q, s.answers[q].Toggle(orig))
	s.saveDraftLocked(ctx)
	return nil
}

func (s *Session) originalIndexLocked(q, displayIndex int) (int, error) {
	if err := s.checkWritableLocked(q); err != nil {
		return 0, err
	}
	question := s.exam.Questions[q]
	if !question.HasOptions() {
		return 0, fmt.Errorf("question %d: %w", q, ErrAnswerKind)
	}
	order := s.orderLocked(q)
	if displayIndex < 0 || displayIndex >= len(order) {
		return 0, fmt.Errorf("option %d: %w", displayIndex, ErrOutOfRange)
	}
	return order[displayIndex], nil
}

func (s *Session) setAnswerLocked(q int, value exam.Answer) {
	if value.IsEmpty() {
		delete(s.answers, q)
		delete(s.answered, q)
		return
	}
	s.answers[q] = value
	s.answered[q] = struct{}{}
}

func (s *Session) checkWritableLocked(q int) error {
	if s.exam == nil || s.finished {
		return ErrNotInProgress
	}
	if s.finishing {
		return ErrTimeExpired
	}
	if q < 0 || q >= len(s.exam.Questions) {
		return fmt.Errorf("question %d: %w", q, ErrOutOfRange)
	}
	return nil
}

func checkAnswer(q exam.Question, a exam.Answer) error {
	switch a.Kind() {
	case exam.AnswerNone:
		return nil
	case exam.AnswerText:
		if q.HasOptions() {
			return ErrAnswerKind
		}
		return nil
	case exam.AnswerSingle:
		if !q.HasOptions() {
			return ErrAnswerKind
		}
		if i, _ := a.Index(); i < 0 || i >= len(q.Options) {
			return fmt.Errorf("option %d: %w", i, ErrOutOfRange)
		}
		return nil
	case exam.AnswerMulti:
		if !q.HasOptions() {
			return ErrAnswerKind
		}
		for _, i := range a.Indices() {
			if i < 0 || i >= len(q.Options) {
				return fmt.Errorf("option %d: %w", i, ErrOutOfRange)
			}
		}
		return nil
	}
	return ErrAnswerKind
}

// Answer returns the stored answer for question q.
func (s *Session) Answer(q int) (exam.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[q]
	return a, ok
}

func (s *Session) IsQuestionAnswered(q int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.answered[q]
	return ok
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answered)
}

// Navigate moves to question q. Unanswered questions may be skipped.
func (s *Session) Navigate(ctx context.Context, q int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exam == nil || s.finished {
		return ErrNotInProgress
	}
	if q < 0 || q >= len(s.exam.Questions) {
		return fmt.Errorf("question %d: %w", q, ErrOutOfRange)
	}
	s.current = q
	s.saveDraftLocked(ctx)
	return nil
}

// OptionOrder returns the display order for question q: element i is the
// original index of the option shown at position i.
func (s *Session) OptionOrder(q int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exam == nil || q < 0 || q >= len(s.exam.Questions) {
		return nil
	}
	return s.orderLocked(q)
}

func (s *Session) orderLocked(q int) []int {
	n := len(s.exam.Questions[q].Options)
	if !s.opts.Shuffle {
		return identityOrder(n)
	}
	return OptionOrder(s.exam.ID, q, n)
}

// Tick advances the countdown by one second. When it reaches zero the
// answers are submitted. If that submission fails the error is returned as
// *AutoSubmitError and later ticks retry it.
func (s *Session) Tick(ctx context.Context) error {
	s.mu.Lock()
	if s.exam == nil || s.finished {
		s.mu.Unlock()
		return nil
	}

	if s.finishing {
		retry := !s.submitting
		s.mu.Unlock()
		if retry {
			return s.autoSubmit(ctx)
		}
		return nil
	}

	crossed := s.timer.Tick()
	if !crossed {
		if s.timer.Running() && s.timer.Remaining()%15 == 0 {
			s.saveDraftLocked(ctx)
		}
		s.mu.Unlock()
		return nil
	}

	s.finishing = true
	busy := s.submitting
	attemptID := s.attemptID
	s.saveDraftLocked(ctx)
	s.mu.Unlock()

	s.log.Info().Str("attempt_id", attemptID).Msg("time is up, submitting")
	if busy {
		// A manual submission is already running; if it fails the next
		// tick retries.
		return nil
	}
	return s.autoSubmit(ctx)
}

func (s *Session) autoSubmit(ctx context.Context) error {
	_, err := s.Submit(ctx)
	if err == nil || errors.Is(err, ErrAlreadySubmitting) || errors.Is(err, ErrStale) {
		return nil
	}

	autoErr := &AutoSubmitError{Err: err}
	s.mu.Lock()
	if s.finishing && !s.finished {
		s.err = autoErr
	}
	s.mu.Unlock()
	s.log.Error().Err(err).Msg("auto-submit failed, answers kept")
	return autoErr
}

// Submit grades the answers and records the result. A second call while
// one is in flight returns ErrAlreadySubmitting. On failure the answers are
// kept and Submit may be called again.
func (s *Session) Submit(ctx context.Context) (*exam.Attempt, error) {
	s.mu.Lock()
	if s.exam == nil || s.finished || s.attemptID == "" {
		s.mu.Unlock()
		return nil, ErrNotInProgress
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitting
	}
	s.submitting = true
	epoch := s.epoch
	examID := s.exam.ID
	sub := gradeLocked(s.attemptID, s.exam, s.answers)
	s.mu.Unlock()

	stored, err := s.exams.SubmitAttempt(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return nil, ErrStale
	}
	s.submitting = false

	if err != nil {
		terr := &TransportError{Op: "submit attempt", Err: err}
		s.err = terr
		s.log.Warn().Err(err).Str("attempt_id", sub.AttemptID).Msg("submit failed")
		return nil, terr
	}

	s.finished = true
	s.finishing = false
	s.timer.Stop()
	s.err = nil
	s.result = stored

	if err := s.drafts.ClearAll(ctx, examID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID).Msg("clear drafts after submit")
	}

	s.log.Info().
		Str("attempt_id", sub.AttemptID).
		Int("score", sub.Score).
		Int("answered", len(s.answered)).
		Msg("attempt submitted")
	return stored, nil
}

func gradeLocked(attemptID string, e *exam.Exam, answers map[int]exam.Answer) exam.Submission {
	results := make([]exam.QuestionResult, len(e.Questions))
	correct := 0
	for i, q := range e.Questions {
		a := answers[i]
		ok := exam.Grade(q, a)
		if ok {
			correct++
		}
		results[i] = exam.QuestionResult{QuestionIndex: i, Answer: a, Correct: ok}
	}
	return exam.Submission{
		AttemptID: attemptID,
		Results:   results,
		Score:     exam.Score(correct, len(e.Questions)),
	}
}

// Abandon stops the attempt and returns the session to idle. Drafts are
// kept so the attempt can be resumed; a response still in flight is
// discarded.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.timer.Stop()
	s.resetLocked()
}

func (s *Session) saveDraftLocked(ctx context.Context) {
	if s.exam == nil || s.attemptID == "" || s.finished {
		return
	}
	d := &draft.Draft{
		AttemptID:        s.attemptID,
		Answers:          maps.Clone(s.answers),
		Answered:         maps.Clone(s.answered),
		CurrentQuestion:  s.current,
		TimeRemaining:    s.timer.Remaining(),
		TimeLimitMinutes: s.opts.TimeLimitMinutes,
		Shuffle:          s.opts.Shuffle,
	}
	if err := s.drafts.Save(ctx, s.exam.ID, d); err != nil {
		s.log.Warn().Err(err).Str("exam_id", s.exam.ID).Msg("save draft")
	}
}

// State is a copy of the session for rendering.
type State struct {
	Exam          *exam.Exam
	AttemptID     string
	Current       int
	Answers       map[int]exam.Answer
	Answered      []int
	TimeRemaining int
	TimerRunning  bool
	Timed         bool
	Shuffle       bool
	Starting      bool
	Submitting    bool
	Finishing     bool
	Finished      bool
	Err           error
	Result        *exam.Attempt
}

// InProgress reports whether answers can still change.
func (st State) InProgress() bool {
	return st.Exam != nil && !st.Finished && !st.Finishing
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Exam:          s.exam,
		AttemptID:     s.attemptID,
		Current:       s.current,
		Answers:       maps.Clone(s.answers),
		Answered:      slices.Sorted(maps.Keys(s.answered)),
		TimeRemaining: s.timer.Remaining(),
		TimerRunning:  s.timer.Running(),
		Timed:         s.opts.TimeLimitMinutes > 0,
		Shuffle:       s.opts.Shuffle,
		Starting:      s.starting,
		Submitting:    s.submitting,
		Finishing:     s.finishing,
		Finished:      s.finished,
		Err:           s.err,
		Result:        s.result,
	}
}
