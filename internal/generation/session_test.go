package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

type fakeService struct {
	genErr     error
	valErr     error
	corrErr    error
	validation *exam.ValidationResult

	// block, when set, holds Generate until it is closed. started is
	// signalled once Generate was entered.
	block   chan struct{}
	started chan struct{}

	calls []string
}

func (f *fakeService) Generate(ctx context.Context, p exam.Parameters) (*exam.GeneratedExam, error) {
	f.calls = append(f.calls, "generate")
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.genErr != nil {
		return nil, f.genErr
	}
	return makeExam("Generated", p.QuestionCount), nil
}

func (f *fakeService) Validate(ctx context.Context, e *exam.GeneratedExam, p exam.Parameters) (*exam.ValidationResult, error) {
	f.calls = append(f.calls, "validate")
	if f.valErr != nil {
		return nil, f.valErr
	}
	if f.validation != nil {
		return f.validation, nil
	}
	return &exam.ValidationResult{Valid: false, Score: 70, Issues: []exam.Issue{{QuestionIndex: 0, Type: "ambiguous", Message: "two answers fit"}}}, nil
}

func (f *fakeService) Correct(ctx context.Context, e *exam.GeneratedExam, v *exam.ValidationResult, p exam.Parameters) (*exam.GeneratedExam, error) {
	f.calls = append(f.calls, "correct")
	if f.corrErr != nil {
		return nil, f.corrErr
	}
	return makeExam("Corrected", len(e.Questions)), nil
}

type fakeCreator struct {
	err    error
	stored []exam.NewExam
}

func (f *fakeCreator) Create(ctx context.Context, in exam.NewExam) (*exam.Exam, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.stored = append(f.stored, in)
	return &exam.Exam{ID: fmt.Sprintf("exam-%d", len(f.stored)), Title: in.Title, Parameters: in.Parameters, Questions: in.Questions}, nil
}

func makeExam(title string, n int) *exam.GeneratedExam {
	qs := make([]exam.Question, n)
	for i := range qs {
		idx := i % 3
		qs[i] = exam.Question{
			Type:         exam.TypeUnique,
			Text:         fmt.Sprintf("Question %d", i),
			Options:      []string{"a", "b", "c"},
			CorrectIndex: &idx,
		}
	}
	return &exam.GeneratedExam{Title: title, Questions: qs}
}

func validParams(count int) exam.Parameters {
	return exam.Parameters{
		Language:      "english",
		Difficulty:    exam.LevelB2,
		GrammarTopics: []string{"conditionals"},
		QuestionTypes: []exam.QuestionType{exam.TypeUnique},
		QuestionCount: count,
	}
}

func newTestSession(svc Service, creator ExamCreator, p exam.Parameters) *Session {
	return NewSession(svc, creator, p, zerolog.Nop())
}

func TestGenerate_ValidParamsReachResult(t *testing.T) {
	for _, count := range []int{5, 12, 20} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			s := newTestSession(&fakeService{}, &fakeCreator{}, validParams(count))

			e, err := s.Generate(context.Background())
			require.NoError(t, err)

			r, ok := s.Step().(ResultStep)
			require.True(t, ok, "step = %s, want RESULT", s.Step().Name())
			assert.Same(t, e, r.Exam)
			assert.Len(t, e.Questions, count)
			assert.Nil(t, s.Validation())
			assert.NoError(t, s.Err())
			assert.Equal(t, OpNone, s.Op())
		})
	}
}

func TestGenerate_InvalidParamsStayInParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *exam.Parameters)
		field  string
	}{
		{"too few questions", func(p *exam.Parameters) { p.QuestionCount = 3 }, "questionCount"},
		{"too many questions", func(p *exam.Parameters) { p.QuestionCount = 21 }, "questionCount"},
		{"no grammar topics", func(p *exam.Parameters) { p.GrammarTopics = nil }, "grammarTopics"},
		{"blank grammar topics", func(p *exam.Parameters) { p.GrammarTopics = []string{"  "} }, "grammarTopics"},
		{"no question types", func(p *exam.Parameters) { p.QuestionTypes = nil }, "questionTypes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams(10)
			tt.mutate(&p)
			svc := &fakeService{}
			s := newTestSession(svc, &fakeCreator{}, p)

			_, err := s.Generate(context.Background())
			var perr *exam.ParamsError
			require.True(t, errors.As(err, &perr), "expected *exam.ParamsError, got %v", err)
			assert.Contains(t, perr.Fields, tt.field)

			assert.IsType(t, ParamsStep{}, s.Step())
			assert.Empty(t, svc.calls, "service must not be called")
			assert.Equal(t, err, s.Err())
		})
	}
}

func TestGenerate_FailureReturnsToParams(t *testing.T) {
	svc := &fakeService{genErr: errors.New("connection refused")}
	s := newTestSession(svc, &fakeCreator{}, validParams(5))

	_, err := s.Generate(context.Background())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, OpGenerating, te.Op)
	assert.IsType(t, ParamsStep{}, s.Step())
	assert.Nil(t, s.Exam())

	svc.genErr = nil
	_, err = s.Generate(context.Background())
	require.NoError(t, err)
	assert.IsType(t, ResultStep{}, s.Step())
	assert.NoError(t, s.Err())
}

func TestUpdateParam(t *testing.T) {
	s := newTestSession(&fakeService{}, &fakeCreator{}, exam.DefaultParameters())

	require.NoError(t, s.UpdateParam("language", "french"))
	require.NoError(t, s.UpdateParam("difficulty", "C1"))
	require.NoError(t, s.UpdateParam("grammarTopics", []string{"subjunctive", "subjunctive"}))
	require.NoError(t, s.UpdateParam("questionTypes", []string{"unique", "translateText"}))
	require.NoError(t, s.UpdateParam("questionCount", 8))
	require.NoError(t, s.UpdateParam("topic", "cooking"))

	p := s.Params()
	assert.Equal(t, "french", p.Language)
	assert.Equal(t, exam.LevelC1, p.Difficulty)
	assert.Equal(t, []exam.QuestionType{exam.TypeUnique, exam.TypeTranslateText}, p.QuestionTypes)
	assert.Equal(t, 8, p.QuestionCount)
	assert.Equal(t, "cooking", p.Topic)

	assert.ErrorIs(t, s.UpdateParam("colour", "blue"), ErrUnknownParam)
	assert.Error(t, s.UpdateParam("questionCount", "eight"))

	_, err := s.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"subjunctive"}, s.Params().GrammarTopics)

	assert.ErrorIs(t, s.UpdateParam("topic", "sports"), ErrWrongStep)
	assert.ErrorIs(t, s.SetParams(validParams(5)), ErrWrongStep)
}

func TestValidateRequiresExam(t *testing.T) {
	s := newTestSession(&fakeService{}, &fakeCreator{}, validParams(5))

	_, err := s.Validate(context.Background())
	assert.ErrorIs(t, err, ErrNoExam)
	_, err = s.Correct(context.Background())
	assert.ErrorIs(t, err, ErrNoExam)
	_, err = s.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoExam)
}

func TestValidateReplacesPrevious(t *testing.T) {
	svc := &fakeService{}
	s := newTestSession(svc, &fakeCreator{}, validParams(5))
	ctx := context.Background()

	_, err := s.Generate(ctx)
	require.NoError(t, err)

	first, err := s.Validate(ctx)
	require.NoError(t, err)
	assert.Same(t, first, s.Validation())

	svc.validation = &exam.ValidationResult{Valid: true, Score: 95, ThumbsUp: true}
	second, err := s.Validate(ctx)
	require.NoError(t, err)
	assert.Same(t, second, s.Validation())
	assert.IsType(t, ResultStep{}, s.Step())

	svc.valErr = errors.New("timeout")
	_, err = s.Validate(ctx)
	require.Error(t, err)
	assert.Same(t, second, s.Validation(), "failed validate must keep the previous review")
}

func TestCorrectClearsValidation(t *testing.T) {
	s := newTestSession(&fakeService{}, &fakeCreator{}, validParams(6))
	ctx := context.Background()

	_, err := s.Correct(ctx)
	assert.ErrorIs(t, err, ErrNoExam)

	_, err = s.Generate(ctx)
	require.NoError(t, err)

	_, err = s.Correct(ctx)
	assert.ErrorIs(t, err, ErrNoValidation)

	_, err = s.Validate(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.Validation())

	corrected, err := s.Correct(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corrected", corrected.Title)
	assert.Same(t, corrected, s.Exam())
	assert.Nil(t, s.Validation())
}

func TestCorrectFailureKeepsState(t *testing.T) {
	svc := &fakeService{}
	s := newTestSession(svc, &fakeCreator{}, validParams(5))
	ctx := context.Background()

	original, err := s.Generate(ctx)
	require.NoError(t, err)
	review, err := s.Validate(ctx)
	require.NoError(t, err)

	svc.corrErr = errors.New("503")
	_, err = s.Correct(ctx)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, OpCorrecting, te.Op)
	assert.Same(t, original, s.Exam())
	assert.Same(t, review, s.Validation())
}

func TestSave(t *testing.T) {
	creator := &fakeCreator{err: errors.New("disk full")}
	p := validParams(5)
	p.Topic = "travel"
	s := newTestSession(&fakeService{}, creator, p)
	ctx := context.Background()

	generated, err := s.Generate(ctx)
	require.NoError(t, err)

	_, err = s.Save(ctx)
	require.Error(t, err)
	assert.Nil(t, s.Saved())
	assert.Same(t, generated, s.Exam(), "failed save must not change the session")

	creator.err = nil
	stored, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "exam-1", stored.ID)
	assert.Same(t, stored, s.Saved())

	require.Len(t, creator.stored, 1)
	in := creator.stored[0]
	assert.Equal(t, generated.Title, in.Title)
	assert.Equal(t, generated.Questions, in.Questions)
	assert.Equal(t, "travel", in.Parameters.Topic)

	_, err = s.Save(ctx)
	assert.ErrorIs(t, err, ErrAlreadySaved)
	assert.Len(t, creator.stored, 1)
}

func TestResetToParams(t *testing.T) {
	s := newTestSession(&fakeService{}, &fakeCreator{}, validParams(7))
	ctx := context.Background()

	_, err := s.Generate(ctx)
	require.NoError(t, err)
	_, err = s.Validate(ctx)
	require.NoError(t, err)

	s.ResetToParams()
	assert.IsType(t, ParamsStep{}, s.Step())
	assert.Nil(t, s.Exam())
	assert.Nil(t, s.Validation())
	assert.Equal(t, 7, s.Params().QuestionCount)

	require.NoError(t, s.UpdateParam("questionCount", 9))
}

func TestBusyAndStaleResponse(t *testing.T) {
	svc := &fakeService{block: make(chan struct{}), started: make(chan struct{})}
	s := newTestSession(svc, &fakeCreator{}, validParams(5))

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background())
		done <- err
	}()
	<-svc.started

	assert.IsType(t, GeneratingStep{}, s.Step())
	assert.Equal(t, OpGenerating, s.Op())

	_, err := s.Generate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	s.ResetToParams()
	close(svc.block)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.IsType(t, ParamsStep{}, s.Step())
	assert.Nil(t, s.Exam())
	assert.Equal(t, OpNone, s.Op())
}
