package examgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandernovadev/languagesai/internal/exam"
	"github.com/alexandernovadev/languagesai/internal/llm"
)

func testParams() exam.Parameters {
	return exam.Parameters{
		Language:      "english",
		Difficulty:    exam.LevelB1,
		GrammarTopics: []string{"present perfect", "articles"},
		QuestionTypes: []exam.QuestionType{exam.TypeUnique, exam.TypeMultiple, exam.TypeTranslateText},
		QuestionCount: 5,
		Topic:         "travel",
	}
}

// examJSON builds a raw LLM response with n questions cycling through a
// single-choice, a multi-select and a translation question.
func examJSON(n int) json.RawMessage {
	qs := make([]map[string]any, n)
	for i := range n {
		switch i % 3 {
		case 0:
			qs[i] = map[string]any{
				"type": "unique", "text": fmt.Sprintf("Q%d: I have ___ to Paris.", i),
				"options": []string{"be", "been", "was"}, "correctIndex": 1, "correctIndices": []int{},
				"correctAnswer": "", "grammarTopic": "present perfect", "explanation": "Past participle.",
			}
		case 1:
			qs[i] = map[string]any{
				"type": "multiple", "text": fmt.Sprintf("Q%d: Pick the correct articles.", i),
				"options": []string{"an apple", "a hour", "an hour", "a apple"}, "correctIndex": 0, "correctIndices": []int{0, 2},
				"correctAnswer": "", "grammarTopic": "articles", "explanation": "Vowel sounds take an.",
			}
		default:
			qs[i] = map[string]any{
				"type": "translateText", "text": fmt.Sprintf("Q%d: Translate: He estado en Roma.", i),
				"options": []string{}, "correctIndex": -1, "correctIndices": []int{},
				"correctAnswer": "I have been to Rome.", "grammarTopic": "present perfect", "explanation": "Present perfect for experience.",
			}
		}
	}
	data, _ := json.Marshal(map[string]any{"title": "Travel talk", "questions": qs})
	return data
}

func reviewJSON() json.RawMessage {
	return json.RawMessage(`{
		"valid": false,
		"score": 60,
		"feedback": "Question 1 has two acceptable answers.",
		"issues": [{"questionIndex": 1, "type": "ambiguous", "message": "a hour is also marked"}],
		"suggestions": ["Use more travel vocabulary"],
		"thumbsUp": false
	}`)
}

func TestGenerate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: examJSON(5)})
	gen := New(mock, DefaultConfig())

	e, err := gen.Generate(context.Background(), testParams())
	require.NoError(t, err)
	require.Len(t, e.Questions, 5)
	assert.Equal(t, "Travel talk", e.Title)

	unique := e.Questions[0]
	require.NotNil(t, unique.CorrectIndex)
	assert.Equal(t, 1, *unique.CorrectIndex)
	assert.Empty(t, unique.CorrectAnswer)
	assert.Empty(t, unique.CorrectIndices)

	multi := e.Questions[1]
	assert.Equal(t, []int{0, 2}, multi.CorrectSet())

	translate := e.Questions[2]
	assert.Nil(t, translate.CorrectIndex)
	assert.Empty(t, translate.Options)
	assert.Equal(t, "I have been to Rome.", translate.CorrectAnswer)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, ExamSchema, req.Schema)
	assert.Contains(t, req.Messages[0].Content, "Number of questions: 5")
	assert.Contains(t, req.Messages[0].Content, "Theme: travel")
}

func TestGenerate_WrongCount(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: examJSON(4)})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testParams())
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr), "expected *ValidationError, got %T", err)
	assert.Equal(t, "structural", valErr.Validator)
	assert.Equal(t, -1, valErr.QuestionIndex)
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testParams())
	var rl *llm.ErrRateLimit
	assert.True(t, errors.As(err, &rl))
}

func TestGenerate_MalformedContent(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`[1,2,3]`)})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestValidateAndCorrect(t *testing.T) {
	rec := llm.NewMockProvider(
		llm.MockResponse{Content: examJSON(5)},
		llm.MockResponse{Content: reviewJSON()},
		llm.MockResponse{Content: examJSON(5)},
	)
	gen := New(rec, DefaultConfig())
	ctx := context.Background()

	e, err := gen.Generate(ctx, testParams())
	require.NoError(t, err)

	v, err := gen.Validate(ctx, e, testParams())
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, 60, v.Score)
	require.Len(t, v.Issues, 1)
	assert.Equal(t, 1, v.Issues[0].QuestionIndex)

	fixed, err := gen.Correct(ctx, e, v, testParams())
	require.NoError(t, err)
	assert.Len(t, fixed.Questions, 5)

	assert.Equal(t, []string{PurposeGenerate, PurposeReview, PurposeCorrect}, rec.Purposes())
	assert.Equal(t, testParams().Language, rec.Labels[1].Language)
	assert.Equal(t, string(testParams().Difficulty), rec.Labels[2].Level)

	reviewReq := rec.Calls[1]
	assert.Equal(t, ReviewSchema, reviewReq.Schema)
	assert.Contains(t, reviewReq.Messages[0].Content, "I have ___ to Paris.")

	correctReq := rec.Calls[2]
	assert.Equal(t, ExamSchema, correctReq.Schema)
	msg := correctReq.Messages[0].Content
	assert.Contains(t, msg, "question 1 [ambiguous]: a hour is also marked")
	assert.Contains(t, msg, "- Use more travel vocabulary")
}

func TestBuildParamsBlock_NoTheme(t *testing.T) {
	p := testParams()
	p.Topic = ""
	block := buildParamsBlock(p)
	assert.True(t, strings.HasSuffix(block, "Theme: Any"))
	assert.Contains(t, block, "Question types: unique, multiple, translateText")
	assert.Contains(t, block, "Level: B1")
}
