// Package exam holds the data model shared by exam generation, storage and
// attempts.
package exam

import (
	"time"
)

// Level is a CEFR certification level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists every level in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// QuestionType identifies how a question is answered.
type QuestionType string

const (
	// TypeMultiple is a multi-select question.
	TypeMultiple QuestionType = "multiple"
	// TypeUnique is a single-choice question.
	TypeUnique QuestionType = "unique"
	// TypeFillInBlank may come with options or expect free text.
	TypeFillInBlank QuestionType = "fillInBlank"
	// TypeTranslateText always expects free text.
	TypeTranslateText QuestionType = "translateText"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{TypeMultiple, TypeUnique, TypeFillInBlank, TypeTranslateText}

// Question is a single generated exam question.
//
// Exactly one of CorrectIndex and CorrectAnswer applies, decided by whether
// Options is populated.
type Question struct {
	Type           QuestionType `json:"type"`
	Text           string       `json:"text"`
	Options        []string     `json:"options,omitempty"`
	CorrectIndex   *int         `json:"correctIndex,omitempty"`
	CorrectIndices []int        `json:"correctIndices,omitempty"`
	CorrectAnswer  string       `json:"correctAnswer,omitempty"`
	GrammarTopic   string       `json:"grammarTopic"`
	Explanation    string       `json:"explanation"`
}

// HasOptions reports whether the question is answered by picking options.
func (q Question) HasOptions() bool {
	return len(q.Options) > 0
}

// CorrectSet returns the original option indices that make up the correct
// answer. Multi-select questions use CorrectIndices and fall back to the
// single CorrectIndex.
func (q Question) CorrectSet() []int {
	if q.Type == TypeMultiple && len(q.CorrectIndices) > 0 {
		return canonicalIndices(q.CorrectIndices)
	}
	if q.CorrectIndex != nil {
		return []int{*q.CorrectIndex}
	}
	return nil
}

// GeneratedExam is the output of the generation service before it is stored.
type GeneratedExam struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Issue is a single problem reported by the exam reviewer.
type Issue struct {
	QuestionIndex int    `json:"questionIndex"`
	Type          string `json:"type"`
	Message       string `json:"message"`
}

// ValidationResult is the reviewer's verdict on a generated exam.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Score       int      `json:"score"`
	Feedback    string   `json:"feedback"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`
	ThumbsUp    bool     `json:"thumbsUp"`
}

// Exam is a stored exam with a stable identity.
type Exam struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Parameters Parameters `json:"parameters"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewExam is the payload submitted when persisting a generated exam.
type NewExam struct {
	Title      string
	Parameters Parameters
	Questions  []Question
}

// AttemptStatus is the lifecycle state of a stored attempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	QuestionIndex int    `json:"questionIndex"`
	Answer        Answer `json:"answer"`
	Correct       bool   `json:"correct"`
}

// Attempt is a stored exam attempt.
type Attempt struct {
	ID          string           `json:"id"`
	ExamID      string           `json:"examId"`
	UserID      string           `json:"userId"`
	Status      AttemptStatus    `json:"status"`
	TimeLimit   int              `json:"timeLimitMinutes"`
	StartedAt   time.Time        `json:"startedAt"`
	SubmittedAt *time.Time       `json:"submittedAt,omitempty"`
	Score       int              `json:"score"`
	Results     []QuestionResult `json:"results,omitempty"`
}

// Submission is what an attempt sends to storage once graded.
type Submission struct {
	AttemptID string
	Results   []QuestionResult
	Score     int
}
