// Package generation drives an exam from parameters through AI generation,
// review and correction to storage.
package generation

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

// Service writes, reviews and corrects exams.
type Service interface {
	Generate(ctx context.Context, params exam.Parameters) (*exam.GeneratedExam, error)
	Validate(ctx context.Context, e *exam.GeneratedExam, params exam.Parameters) (*exam.ValidationResult, error)
	Correct(ctx context.Context, e *exam.GeneratedExam, v *exam.ValidationResult, params exam.Parameters) (*exam.GeneratedExam, error)
}

// ExamCreator persists a generated exam.
type ExamCreator interface {
	Create(ctx context.Context, in exam.NewExam) (*exam.Exam, error)
}

// Session is the PARAMS → GENERATING → RESULT step machine.
//
// Network calls run without holding the lock, so readers stay responsive.
// Only one network-bound operation runs at a time; a second one fails with
// ErrBusy. Every failure leaves the state as it was before the call.
type Session struct {
	service Service
	creator ExamCreator
	log     zerolog.Logger

	mu     sync.Mutex
	params exam.Parameters
	step   Step
	op     Op
	epoch  uint64
	err    error
	saved  *exam.Exam
}

// NewSession starts a session in PARAMS with the given initial parameters.
func NewSession(service Service, creator ExamCreator, params exam.Parameters, log zerolog.Logger) *Session {
	return &Session{
		service: service,
		creator: creator,
		log:     log.With().Str("component", "generation").Logger(),
		params:  params,
		step:    ParamsStep{},
	}
}

// State is a consistent snapshot of the session for rendering.
type State struct {
	Step       Step
	Params     exam.Parameters
	Exam       *exam.GeneratedExam
	Validation *exam.ValidationResult
	Op         Op
	Err        error
	Saved      *exam.Exam
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Step:   s.step,
		Params: cloneParams(s.params),
		Op:     s.op,
		Err:    s.err,
		Saved:  s.saved,
	}
	if r, ok := s.step.(ResultStep); ok {
		st.Exam = r.Exam
		st.Validation = r.Validation
	}
	return st
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Params() exam.Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneParams(s.params)
}

// Exam returns the generated exam, or nil outside RESULT.
func (s *Session) Exam() *exam.GeneratedExam {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.step.(ResultStep); ok {
		return r.Exam
	}
	return nil
}

// Validation returns the latest review of the current exam, if any.
func (s *Session) Validation() *exam.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.step.(ResultStep); ok {
		return r.Validation
	}
	return nil
}

// Op returns the operation in flight, or OpNone.
func (s *Session) Op() Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.op
}

// Err returns the error of the last failed operation, cleared by the next
// successful one.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Saved returns the stored exam once Save succeeded.
func (s *Session) Saved() *exam.Exam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// UpdateParam sets one parameter. It is only allowed in PARAMS.
//
// Keys and value types: language, topic (string); difficulty (exam.Level or
// string); grammarTopics ([]string); questionTypes ([]exam.QuestionType or
// []string); questionCount (int).
func (s *Session) UpdateParam(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.step.(ParamsStep); !ok {
		return fmt.Errorf("update %s: %w", key, ErrWrongStep)
	}

	p := s.params
	switch key {
	case "language":
		v, ok := value.(string)
		if !ok {
			return paramTypeError(key, value)
		}
		p.Language = v
	case "difficulty":
		switch v := value.(type) {
		case exam.Level:
			p.Difficulty = v
		case string:
			p.Difficulty = exam.Level(v)
		default:
			return paramTypeError(key, value)
		}
	case "grammarTopics":
		v, ok := value.([]string)
		if !ok {
			return paramTypeError(key, value)
		}
		p.GrammarTopics = slices.Clone(v)
	case "questionTypes":
		switch v := value.(type) {
		case []exam.QuestionType:
			p.QuestionTypes = slices.Clone(v)
		case []string:
			types := make([]exam.QuestionType, len(v))
			for i, t := range v {
				types[i] = exam.QuestionType(t)
			}
			p.QuestionTypes = types
		default:
			return paramTypeError(key, value)
		}
	case "questionCount":
		v, ok := value.(int)
		if !ok {
			return paramTypeError(key, value)
		}
		p.QuestionCount = v
	case "topic":
		v, ok := value.(string)
		if !ok {
			return paramTypeError(key, value)
		}
		p.Topic = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, key)
	}

	s.params = p
	return nil
}

// SetParams replaces every parameter. It is only allowed in PARAMS.
func (s *Session) SetParams(p exam.Parameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.step.(ParamsStep); !ok {
		return fmt.Errorf("set parameters: %w", ErrWrongStep)
	}
	s.params = cloneParams(p)
	return nil
}

// Generate validates the parameters and asks the service for an exam. On
// success the session moves to RESULT; on a service failure it returns to
// PARAMS with nothing retained. Invalid parameters return *exam.ParamsError
// without leaving PARAMS.
func (s *Session) Generate(ctx context.Context) (*exam.GeneratedExam, error) {
	s.mu.Lock()
	if s.op != OpNone {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if _, ok := s.step.(ParamsStep); !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("generate: %w", ErrWrongStep)
	}

	params := s.params.Normalize()
	if err := exam.ValidateParameters(params); err != nil {
		s.err = err
		s.mu.Unlock()
		return nil, err
	}

	s.params = params
	s.step = GeneratingStep{}
	s.op = OpGenerating
	s.err = nil
	epoch := s.epoch
	s.mu.Unlock()

	s.log.Info().
		Str("language", params.Language).
		Str("level", string(params.Difficulty)).
		Int("questions", params.QuestionCount).
		Msg("generating exam")

	generated, err := s.service.Generate(ctx, cloneParams(params))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return nil, ErrStale
	}
	s.op = OpNone

	if err != nil {
		s.step = ParamsStep{}
		s.err = &TransportError{Op: OpGenerating, Err: err}
		s.log.Warn().Err(err).Msg("exam generation failed")
		return nil, s.err
	}

	s.step = ResultStep{Exam: generated}
	s.log.Info().Str("title", generated.Title).Int("questions", len(generated.Questions)).Msg("exam generated")
	return generated, nil
}

// Validate asks the service to review the current exam. Any previous review
// is replaced. The session stays in RESULT either way.
func (s *Session) Validate(ctx context.Context) (*exam.ValidationResult, error) {
	s.mu.Lock()
	if s.op != OpNone {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	result, ok := s.step.(ResultStep)
	if !ok || result.Exam == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("validate: %w", ErrNoExam)
	}
	s.op = OpValidating
	epoch := s.epoch
	params := cloneParams(s.params)
	s.mu.Unlock()

	v, err := s.service.Validate(ctx, result.Exam, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return nil, ErrStale
	}
	s.op = OpNone

	if err != nil {
		s.err = &TransportError{Op: OpValidating, Err: err}
		s.log.Warn().Err(err).Msg("exam validation failed")
		return nil, s.err
	}

	s.err = nil
	s.step = ResultStep{Exam: result.Exam, Validation: v}
	s.log.Info().Bool("valid", v.Valid).Int("score", v.Score).Int("issues", len(v.Issues)).Msg("exam validated")
	return v, nil
}

// Correct asks the service to fix the exam using the current review. On
// success the exam is replaced and the review is cleared, since it no
// longer describes the exam.
func (s *Session) Correct(ctx context.Context) (*exam.GeneratedExam, error) {
	s.mu.Lock()
	if s.op != OpNone {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	result, ok := s.step.(ResultStep)
	if !ok || result.Exam == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("correct: %w", ErrNoExam)
	}
	if result.Validation == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("correct: %w", ErrNoValidation)
	}
	s.op = OpCorrecting
	epoch := s.epoch
	params := cloneParams(s.params)
	s.mu.Unlock()

	corrected, err := s.service.Correct(ctx, result.Exam, result.Validation, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return nil, ErrStale
	}
	s.op = OpNone

	if err != nil {
		s.err = &TransportError{Op: OpCorrecting, Err: err}
		s.log.Warn().Err(err).Msg("exam correction failed")
		return nil, s.err
	}

	s.err = nil
	s.step = ResultStep{Exam: corrected}
	s.log.Info().Str("title", corrected.Title).Msg("exam corrected")
	return corrected, nil
}

// Save stores the current exam with the parameters it was generated from.
// A failure leaves the session unchanged so Save can be retried.
func (s *Session) Save(ctx context.Context) (*exam.Exam, error) {
	s.mu.Lock()
	if s.op != OpNone {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	result, ok := s.step.(ResultStep)
	if !ok || result.Exam == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("save: %w", ErrNoExam)
	}
	if s.saved != nil {
		s.mu.Unlock()
		return nil, ErrAlreadySaved
	}
	s.op = OpSaving
	epoch := s.epoch
	in := exam.NewExam{
		Title:      result.Exam.Title,
		Parameters: cloneParams(s.params),
		Questions:  slices.Clone(result.Exam.Questions),
	}
	s.mu.Unlock()

	stored, err := s.creator.Create(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		if err == nil {
			s.log.Warn().Str("exam_id", stored.ID).Msg("exam saved after reset")
		}
		return nil, ErrStale
	}
	s.op = OpNone

	if err != nil {
		s.err = &TransportError{Op: OpSaving, Err: err}
		s.log.Warn().Err(err).Msg("saving exam failed")
		return nil, s.err
	}

	s.err = nil
	s.saved = stored
	s.log.Info().Str("exam_id", stored.ID).Msg("exam saved")
	return stored, nil
}

// ResetToParams discards the exam and its review and returns to PARAMS,
// keeping the parameters. A response still in flight is discarded when it
// arrives.
func (s *Session) ResetToParams() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.step = ParamsStep{}
	s.op = OpNone
	s.err = nil
	s.saved = nil
}

func paramTypeError(key string, value any) error {
	return fmt.Errorf("parameter %s: unexpected value type %T", key, value)
}

func cloneParams(p exam.Parameters) exam.Parameters {
	p.GrammarTopics = slices.Clone(p.GrammarTopics)
	p.QuestionTypes = slices.Clone(p.QuestionTypes)
	return p
}
