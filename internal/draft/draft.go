// Package draft persists in-progress attempts so they survive a restart.
package draft

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

// Draft is the recoverable state of an attempt.
type Draft struct {
	ExamID           string
	AttemptID        string
	Answers          map[int]exam.Answer
	Answered         map[int]struct{}
	CurrentQuestion  int
	TimeRemaining    int
	TimeLimitMinutes int
	Shuffle          bool
	SavedAt          time.Time
}

// AnsweredList returns the answered question indices in ascending order.
func (d *Draft) AnsweredList() []int {
	return slices.Sorted(maps.Keys(d.Answered))
}

// Persisted is the JSON form of a Draft. The answered set is stored as a
// list; it may come back as numbers or numeric strings.
type Persisted struct {
	ExamID               string              `json:"examId"`
	AttemptID            string              `json:"attemptId"`
	Answers              map[int]exam.Answer `json:"answers"`
	AnsweredQuestions    []json.Number       `json:"answeredQuestions"`
	CurrentQuestionIndex int                 `json:"currentQuestionIndex"`
	TimeRemaining        int                 `json:"timeRemaining"`
	TimeLimitMinutes     int                 `json:"timeLimitMinutes,omitempty"`
	Shuffle              bool                `json:"shuffle,omitempty"`
	SavedAt              time.Time           `json:"savedAt"`
}

// ToPersisted converts d to its stored form. Empty answers are dropped.
func ToPersisted(d *Draft) Persisted {
	answers := make(map[int]exam.Answer, len(d.Answers))
	for q, a := range d.Answers {
		if !a.IsEmpty() {
			answers[q] = a
		}
	}

	answered := d.AnsweredList()
	list := make([]json.Number, len(answered))
	for i, q := range answered {
		list[i] = json.Number(fmt.Sprint(q))
	}

	return Persisted{
		ExamID:               d.ExamID,
		AttemptID:            d.AttemptID,
		Answers:              answers,
		AnsweredQuestions:    list,
		CurrentQuestionIndex: d.CurrentQuestion,
		TimeRemaining:        d.TimeRemaining,
		TimeLimitMinutes:     d.TimeLimitMinutes,
		Shuffle:              d.Shuffle,
		SavedAt:              d.SavedAt,
	}
}

// FromPersisted rebuilds a Draft. The answered list becomes a set, so
// duplicates and order do not matter.
func FromPersisted(p Persisted) (*Draft, error) {
	indices, err := exam.ParseIndices(p.AnsweredQuestions)
	if err != nil {
		return nil, fmt.Errorf("answered questions: %w", err)
	}

	answered := make(map[int]struct{}, len(indices))
	for _, q := range indices {
		if q < 0 {
			return nil, fmt.Errorf("answered questions: negative index %d", q)
		}
		answered[q] = struct{}{}
	}

	answers := make(map[int]exam.Answer, len(p.Answers))
	for q, a := range p.Answers {
		if !a.IsEmpty() {
			answers[q] = a
		}
	}

	return &Draft{
		ExamID:           p.ExamID,
		AttemptID:        p.AttemptID,
		Answers:          answers,
		Answered:         answered,
		CurrentQuestion:  p.CurrentQuestionIndex,
		TimeRemaining:    p.TimeRemaining,
		TimeLimitMinutes: p.TimeLimitMinutes,
		Shuffle:          p.Shuffle,
		SavedAt:          p.SavedAt,
	}, nil
}

// Marshal encodes d as JSON.
func Marshal(d *Draft) ([]byte, error) {
	return json.Marshal(ToPersisted(d))
}

// Unmarshal decodes a draft written by Marshal.
func Unmarshal(data []byte) (*Draft, error) {
	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return FromPersisted(p)
}
