package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &ErrRateLimit{Err: boom}, true},
		{"unavailable", &ErrProviderUnavailable{Err: boom}, true},
		{"invalid response", &ErrInvalidResponse{Err: boom}, true},
		{"plain network error", boom, true},
		{"auth", &ErrAuth{Err: boom}, false},
		{"wrapped auth", fmt.Errorf("generate: %w", &ErrAuth{Err: boom}), false},
		{"truncated", &ErrMaxTokensExceeded{}, false},
		{"missing key", fmt.Errorf("openai: %w", ErrMissingAPIKey), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	boom := errors.New("boom")

	var rl *ErrRateLimit
	assert.ErrorAs(t, classifyStatus(http.StatusTooManyRequests, 3*time.Second, boom), &rl)
	assert.Equal(t, 3*time.Second, rl.RetryAfter)

	var auth *ErrAuth
	assert.ErrorAs(t, classifyStatus(http.StatusUnauthorized, 0, boom), &auth)
	assert.ErrorAs(t, classifyStatus(http.StatusForbidden, 0, boom), &auth)

	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, classifyStatus(http.StatusBadGateway, 0, boom), &unavail)
	assert.ErrorAs(t, classifyStatus(0, 0, boom), &unavail)
	assert.ErrorIs(t, classifyStatus(http.StatusBadGateway, 0, boom), boom)
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	assert.Zero(t, parseRetryAfter(nil))
	assert.Zero(t, parseRetryAfter(h))
	h.Set("Retry-After", "soon")
	assert.Zero(t, parseRetryAfter(h))
	h.Set("Retry-After", "12")
	assert.Equal(t, 12*time.Second, parseRetryAfter(h))
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Contains(t, Describe(fmt.Errorf("x: %w", ErrMissingAPIKey)), "No API key")
	assert.Contains(t, Describe(&ErrAuth{Err: errors.New("401")}), "rejected")
	assert.Contains(t, Describe(&ErrMaxTokensExceeded{}), "fewer questions")
	assert.Contains(t, Describe(context.DeadlineExceeded), "too long")
	assert.Equal(t, "plain", Describe(errors.New("plain")))
}
