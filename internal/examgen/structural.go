package examgen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

const (
	maxTextLen        = 600
	maxExplanationLen = 1200
)

// StructuralValidator checks the exam shape: question count, known and
// requested types, and that every question carries exactly one kind of
// correct answer.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(e *exam.GeneratedExam, params exam.Parameters) *ValidationError {
	if strings.TrimSpace(e.Title) == "" {
		return v.fail(-1, "title is empty")
	}
	if len(e.Questions) != params.QuestionCount {
		return v.fail(-1, fmt.Sprintf("expected %d questions, got %d", params.QuestionCount, len(e.Questions)))
	}

	for i, q := range e.Questions {
		if err := v.validateQuestion(i, q, params); err != nil {
			return err
		}
	}
	return nil
}

func (v *StructuralValidator) validateQuestion(i int, q exam.Question, params exam.Parameters) *ValidationError {
	if strings.TrimSpace(q.Text) == "" {
		return v.fail(i, "text is empty")
	}
	if len(q.Text) > maxTextLen {
		return v.fail(i, fmt.Sprintf("text exceeds %d characters", maxTextLen))
	}
	if len(q.Explanation) > maxExplanationLen {
		return v.fail(i, fmt.Sprintf("explanation exceeds %d characters", maxExplanationLen))
	}
	if !slices.Contains(exam.QuestionTypes, q.Type) {
		return v.fail(i, fmt.Sprintf("unknown type %q", q.Type))
	}
	if len(params.QuestionTypes) > 0 && !slices.Contains(params.QuestionTypes, q.Type) {
		return v.fail(i, fmt.Sprintf("type %q was not requested", q.Type))
	}

	switch q.Type {
	case exam.TypeMultiple, exam.TypeUnique:
		if len(q.Options) < 2 {
			return v.fail(i, fmt.Sprintf("%s question needs at least 2 options", q.Type))
		}
	case exam.TypeTranslateText:
		if q.HasOptions() {
			return v.fail(i, "translateText question must not have options")
		}
	}

	if !q.HasOptions() {
		if q.CorrectIndex != nil || len(q.CorrectIndices) > 0 {
			return v.fail(i, "correct index given for a question without options")
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return v.fail(i, "correctAnswer is empty")
		}
		return nil
	}

	if q.CorrectAnswer != "" {
		return v.fail(i, "correctAnswer given for a question with options")
	}
	if q.CorrectIndex == nil {
		return v.fail(i, "correctIndex is missing")
	}
	if *q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options) {
		return v.fail(i, fmt.Sprintf("correctIndex %d out of range", *q.CorrectIndex))
	}
	for _, idx := range q.CorrectIndices {
		if idx < 0 || idx >= len(q.Options) {
			return v.fail(i, fmt.Sprintf("correctIndices entry %d out of range", idx))
		}
	}
	if q.Type == exam.TypeMultiple && len(q.CorrectIndices) > 0 && !slices.Contains(q.CorrectIndices, *q.CorrectIndex) {
		return v.fail(i, "correctIndex is not among correctIndices")
	}
	return nil
}

func (v *StructuralValidator) fail(question int, msg string) *ValidationError {
	return &ValidationError{
		Validator:     v.Name(),
		QuestionIndex: question,
		Message:       msg,
		Retryable:     true,
	}
}
