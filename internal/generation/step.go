package generation

import "github.com/alexandernovadev/languagesai/internal/exam"

// Step is the current position in the generation flow. It is one of
// ParamsStep, GeneratingStep or ResultStep.
type Step interface {
	Name() string
	isStep()
}

// ParamsStep is the editable parameter form.
type ParamsStep struct{}

// GeneratingStep is shown while the exam is being written.
type GeneratingStep struct{}

// ResultStep holds a generated exam and its latest review, if any.
type ResultStep struct {
	Exam       *exam.GeneratedExam
	Validation *exam.ValidationResult
}

func (ParamsStep) Name() string     { return "PARAMS" }
func (GeneratingStep) Name() string { return "GENERATING" }
func (ResultStep) Name() string     { return "RESULT" }

func (ParamsStep) isStep()     {}
func (GeneratingStep) isStep() {}
func (ResultStep) isStep()     {}

// Op names the network-bound operation in flight.
type Op string

const (
	OpNone       Op = ""
	OpGenerating Op = "generating"
	OpValidating Op = "validating"
	OpCorrecting Op = "correcting"
	OpSaving     Op = "saving"
)
