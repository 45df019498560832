package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intPtr(i int) *int { return &i }

func sampleExam() exam.NewExam {
	return exam.NewExam{
		Title: "Past simple check",
		Parameters: exam.Parameters{
			Language:      "english",
			Difficulty:    exam.LevelA2,
			GrammarTopics: []string{"past simple"},
			QuestionTypes: []exam.QuestionType{exam.TypeUnique, exam.TypeTranslateText},
			QuestionCount: 5,
		},
		Questions: []exam.Question{
			{Type: exam.TypeUnique, Text: "Yesterday I ___ home.", Options: []string{"go", "went", "gone"}, CorrectIndex: intPtr(1), GrammarTopic: "past simple"},
			{Type: exam.TypeTranslateText, Text: "Translate: Ayer comí pan.", CorrectAnswer: "Yesterday I ate bread.", GrammarTopic: "past simple"},
		},
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestExamCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.Exams()
	ctx := context.Background()

	created, err := repo.Create(ctx, sampleExam())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Parameters, got.Parameters)
	assert.Equal(t, created.Questions, got.Questions)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestExamGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Exams().GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestExamListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.Exams()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		in := sampleExam()
		in.Title = title
		_, err := repo.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "first", all[2].Title)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAttemptLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.Exams()
	ctx := context.Background()

	e, err := repo.Create(ctx, sampleExam())
	require.NoError(t, err)

	a, err := repo.StartAttempt(ctx, e.ID, "user-1", 15)
	require.NoError(t, err)
	assert.Equal(t, exam.AttemptInProgress, a.Status)
	assert.Equal(t, 15, a.TimeLimit)

	sub := exam.Submission{
		AttemptID: a.ID,
		Score:     50,
		Results: []exam.QuestionResult{
			{QuestionIndex: 0, Answer: exam.SingleAnswer(1), Correct: true},
			{QuestionIndex: 1, Answer: exam.TextAnswer("I ate"), Correct: false},
		},
	}
	done, err := repo.SubmitAttempt(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, exam.AttemptSubmitted, done.Status)
	assert.Equal(t, 50, done.Score)
	require.NotNil(t, done.SubmittedAt)
	require.Len(t, done.Results, 2)
	assert.True(t, done.Results[0].Answer.Equal(exam.SingleAnswer(1)))
	assert.True(t, done.Results[1].Answer.Equal(exam.TextAnswer("I ate")))

	_, err = repo.SubmitAttempt(ctx, sub)
	assert.True(t, errors.Is(err, ErrAttemptClosed))

	list, err := repo.ListAttempts(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestStartAttemptMissingExam(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Exams().StartAttempt(context.Background(), "missing", "user-1", 0)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSubmitMissingAttempt(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Exams().SubmitAttempt(context.Background(), exam.Submission{AttemptID: "missing"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestKV(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "a", []byte("one")))
	require.NoError(t, kv.Set(ctx, "a", []byte("two")))
	require.NoError(t, kv.Set(ctx, "b", []byte("three")))

	v, ok, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", string(v))

	require.NoError(t, kv.Delete(ctx, "a", "b", "missing"))
	_, ok, err = kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, purpose := range []string{"exam-gen", "exam-review", "exam-gen"} {
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:    "mock",
			Model:       "mock",
			Purpose:     purpose,
			InputTokens: 10,
			Success:     true,
			RequestBody: "[user]\nhello",
		}))
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[1].ID)

	gens, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "exam-gen", Limit: 1})
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, all[0].ID, gens[0].ID)

	e, err := repo.GetLLMEvent(ctx, all[1].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "exam-review", e.Purpose)
	assert.True(t, e.Success)
	assert.Equal(t, "[user]\nhello", e.RequestBody)

	missing, err := repo.GetLLMEvent(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
