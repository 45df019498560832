package exam

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Grade reports whether a is a correct answer to q. Option answers are
// compared by original index; a multi-select question needs the exact
// correct set. Text answers are compared after Unicode normalization with
// whitespace collapsed and case folded.
func Grade(q Question, a Answer) bool {
	if a.IsEmpty() {
		return false
	}

	if !q.HasOptions() {
		text, ok := a.Text()
		if !ok {
			return false
		}
		return NormalizeText(text) == NormalizeText(q.CorrectAnswer) && q.CorrectAnswer != ""
	}

	want := q.CorrectSet()
	if len(want) == 0 {
		return false
	}

	var got []int
	switch a.Kind() {
	case AnswerSingle:
		i, _ := a.Index()
		got = []int{i}
	case AnswerMulti:
		got = a.Indices()
	default:
		return false
	}
	return slices.Equal(got, want)
}

// NormalizeText prepares free text for comparison.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// Score converts a correct count into a 0-100 integer percentage, rounding
// halves up. An exam with no questions scores 0.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}
