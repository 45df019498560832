package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandernovadev/languagesai/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:llm_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	s := openTestStore(t)
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"title":"t"}`), Usage: Usage{InputTokens: 12, OutputTokens: 7}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	p := WithLogging(mock, "mock", s.EventRepo(), log)

	ctx := WithPurpose(context.Background(), "exam-gen")
	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "make an exam"}},
		Schema:   &Schema{Name: "tiny", Definition: map[string]any{"type": "object"}},
	}
	_, err := p.Generate(ctx, req)
	require.NoError(t, err)
	_, err = p.Generate(ctx, req)
	require.Error(t, err)

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	failed, succeeded := events[0], events[1]
	assert.False(t, failed.Success)
	assert.Contains(t, failed.ErrorMessage, "down")

	assert.True(t, succeeded.Success)
	assert.Equal(t, "exam-gen", succeeded.Purpose)
	assert.Equal(t, "mock", succeeded.Provider)
	assert.Equal(t, 12, succeeded.InputTokens)
	assert.Equal(t, `{"title":"t"}`, succeeded.ResponseBody)
	assert.Contains(t, succeeded.RequestBody, "[system]\nsys")
	assert.Contains(t, succeeded.RequestBody, "[user]\nmake an exam")
	assert.Contains(t, succeeded.RequestBody, "[schema: tiny]")

	assert.Contains(t, buf.String(), `"purpose":"exam-gen"`)
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, "mock", nil, zerolog.Nop())

	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestTimeoutProvider(t *testing.T) {
	p := WithTimeout(blockingProvider{}, 10*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "blocking", p.ModelID())

	mock := NewMockProvider()
	assert.Same(t, mock, WithTimeout(mock, 0))
}

func TestNewProvider(t *testing.T) {
	s := openTestStore(t)

	cfg := DefaultConfig()
	cfg.Provider = "mock"
	p, err := NewProvider(context.Background(), cfg, s.EventRepo(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	cfg.Provider = "openai"
	_, err = NewProvider(context.Background(), cfg, s.EventRepo(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	cfg.OpenAI.APIKey = "sk-test"
	p, err = NewProvider(context.Background(), cfg, s.EventRepo(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-2024-08-06", p.ModelID())

	cfg.Provider = "carrier-pigeon"
	_, err = NewProvider(context.Background(), cfg, s.EventRepo(), zerolog.Nop())
	require.Error(t, err)
}
