package examgen

import (
	"fmt"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

// Validator checks a generated exam before it is handed back to the caller.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g. "structural".
	Name() string

	// Validate returns nil when the exam passes. The parameters the exam was
	// generated for are provided for context.
	Validate(e *exam.GeneratedExam, params exam.Parameters) *ValidationError
}

// ValidationError describes why a generated exam was rejected.
type ValidationError struct {
	Validator     string // Name of the validator that failed
	QuestionIndex int    // -1 when the failure concerns the whole exam
	Message       string // Human-readable description of the failure
	Retryable     bool   // Whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	if e.QuestionIndex >= 0 {
		return fmt.Sprintf("validator %q: question %d: %s", e.Validator, e.QuestionIndex, e.Message)
	}
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
