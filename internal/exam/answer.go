package exam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// AnswerKind tags the variant held by an Answer.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
	AnswerText
)

// Answer is a user's response to one question. It holds either a single
// option index, a set of option indices, or free text. Option indices always
// refer to the question's original (unshuffled) order.
type Answer struct {
	kind    AnswerKind
	index   int
	indices []int
	text    string
}

// SingleAnswer selects one option.
func SingleAnswer(index int) Answer {
	return Answer{kind: AnswerSingle, index: index}
}

// MultiAnswer selects a set of options. Duplicates are dropped and the
// indices are kept sorted.
func MultiAnswer(indices ...int) Answer {
	return Answer{kind: AnswerMulti, indices: canonicalIndices(indices)}
}

// TextAnswer is a free-text response.
func TextAnswer(text string) Answer {
	return Answer{kind: AnswerText, text: text}
}

func (a Answer) Kind() AnswerKind { return a.kind }

// Index returns the selected option of a single-choice answer.
func (a Answer) Index() (int, bool) {
	return a.index, a.kind == AnswerSingle
}

// Indices returns a copy of the selected options of a multi-select answer.
func (a Answer) Indices() []int {
	if a.kind != AnswerMulti {
		return nil
	}
	return slices.Clone(a.indices)
}

// Text returns the free-text response.
func (a Answer) Text() (string, bool) {
	return a.text, a.kind == AnswerText
}

// IsEmpty reports whether the answer counts as "not answered": no value,
// blank text, or an empty selection.
func (a Answer) IsEmpty() bool {
	switch a.kind {
	case AnswerSingle:
		return false
	case AnswerMulti:
		return len(a.indices) == 0
	case AnswerText:
		return strings.TrimSpace(a.text) == ""
	default:
		return true
	}
}

// Equal reports whether two answers hold the same value.
func (a Answer) Equal(b Answer) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case AnswerSingle:
		return a.index == b.index
	case AnswerMulti:
		return slices.Equal(a.indices, b.indices)
	case AnswerText:
		return a.text == b.text
	default:
		return true
	}
}

// Toggle adds index to a multi-select answer, or removes it when already
// selected. A single answer is treated as a one-element selection.
func (a Answer) Toggle(index int) Answer {
	var cur []int
	switch a.kind {
	case AnswerMulti:
		cur = a.indices
	case AnswerSingle:
		cur = []int{a.index}
	}
	if slices.Contains(cur, index) {
		next := make([]int, 0, len(cur))
		for _, i := range cur {
			if i != index {
				next = append(next, i)
			}
		}
		return MultiAnswer(next...)
	}
	return MultiAnswer(append(slices.Clone(cur), index)...)
}

func (a Answer) String() string {
	switch a.kind {
	case AnswerSingle:
		return strconv.Itoa(a.index)
	case AnswerMulti:
		parts := make([]string, len(a.indices))
		for i, idx := range a.indices {
			parts[i] = strconv.Itoa(idx)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case AnswerText:
		return strconv.Quote(a.text)
	default:
		return "<none>"
	}
}

// MarshalJSON encodes a single answer as a number, a multi answer as an
// array of numbers, text as a string and no answer as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerSingle:
		return json.Marshal(a.index)
	case AnswerMulti:
		if a.indices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.indices)
	case AnswerText:
		return json.Marshal(a.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON. Array elements may
// also be numeric strings.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text answer: %w", err)
		}
		*a = TextAnswer(s)
	case '[':
		var raw []json.Number
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode multi answer: %w", err)
		}
		indices, err := ParseIndices(raw)
		if err != nil {
			return fmt.Errorf("decode multi answer: %w", err)
		}
		*a = MultiAnswer(indices...)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode single answer: %w", err)
		}
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return fmt.Errorf("decode single answer: %w", err)
		}
		*a = SingleAnswer(i)
	}
	return nil
}

// ParseIndices converts decoded JSON numbers (which may have been encoded as
// strings) to ints.
func ParseIndices(raw []json.Number) ([]int, error) {
	out := make([]int, 0, len(raw))
	for _, n := range raw {
		i, err := strconv.Atoi(strings.TrimSpace(n.String()))
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", n.String(), err)
		}
		out = append(out, i)
	}
	return out, nil
}

func canonicalIndices(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
