package result

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

func intPtr(i int) *int { return &i }

func testResult() (*exam.Exam, *exam.Attempt) {
	e := &exam.Exam{
		ID:    "e1",
		Title: "Present simple",
		Questions: []exam.Question{
			{Type: exam.TypeUnique, Text: "I ___ happy.", Options: []string{"is", "am", "are"}, CorrectIndex: intPtr(1), Explanation: "First person uses am."},
			{Type: exam.TypeMultiple, Text: "Pick the nouns.", Options: []string{"water", "run", "rice"}, CorrectIndices: []int{0, 2}},
			{Type: exam.TypeTranslateText, Text: "Tengo hambre", CorrectAnswer: "I am hungry"},
		},
	}
	a := &exam.Attempt{
		ID:     "a1",
		ExamID: "e1",
		Status: exam.AttemptSubmitted,
		Score:  33,
		Results: []exam.QuestionResult{
			{QuestionIndex: 0, Answer: exam.SingleAnswer(1), Correct: true},
			{QuestionIndex: 1, Answer: exam.MultiAnswer(0), Correct: false},
			{QuestionIndex: 2, Correct: false},
		},
	}
	return e, a
}

func TestResultScreen_View(t *testing.T) {
	s := New(testResult())
	view := s.View(100, 40)

	assert.Contains(t, view, "Score: 33%")
	assert.Contains(t, view, "1 of 3 correct")
	assert.Contains(t, view, "First person uses am.")
	assert.Contains(t, view, "water, rice")
	assert.Contains(t, view, "(no answer)")
	assert.Equal(t, "33% ", s.Status())
}

func TestResultScreen_Quit(t *testing.T) {
	for _, code := range []rune{tea.KeyEnter, tea.KeyEscape} {
		s := New(testResult())
		_, cmd := s.Update(tea.KeyPressMsg{Code: code})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestResultScreen_Scroll(t *testing.T) {
	s := New(testResult())
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 2, s.offset)
	assert.False(t, strings.Contains(s.View(100, 40), "I ___ happy."))

	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 1, s.offset)
}

func TestDescribeAnswer(t *testing.T) {
	e, _ := testResult()
	assert.Equal(t, "am", DescribeAnswer(e.Questions[0], exam.SingleAnswer(1)))
	assert.Equal(t, "I'm hungry", DescribeAnswer(e.Questions[2], exam.TextAnswer("I'm hungry")))
	assert.Equal(t, "(no answer)", DescribeAnswer(e.Questions[2], exam.TextAnswer("   ")))
	assert.Equal(t, "I am hungry", DescribeCorrect(e.Questions[2]))
	assert.Equal(t, "water, rice", DescribeCorrect(e.Questions[1]))
}
