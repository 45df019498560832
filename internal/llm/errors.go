package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrMissingAPIKey is returned by provider constructors without a key.
var ErrMissingAPIKey = errors.New("API key is required")

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrAuth indicates the provider rejected the credentials (401/403).
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("LLM provider rejected the API key: %v", e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit. Long exams (20 questions with explanations) are
// the usual cause.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// IsTransient reports whether another attempt may succeed. Cancellation,
// bad credentials and truncation are permanent; everything else, including
// unclassified network errors, is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var auth *ErrAuth
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &auth) || errors.As(err, &maxTok) || errors.Is(err, ErrMissingAPIKey) {
		return false
	}
	return true
}

// Describe turns a provider error into a short message for the user.
func Describe(err error) string {
	var (
		rl      *ErrRateLimit
		auth    *ErrAuth
		inv     *ErrInvalidResponse
		unavail *ErrProviderUnavailable
		maxTok  *ErrMaxTokensExceeded
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "The AI service took too long to answer. Try again."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, ErrMissingAPIKey):
		return "No API key configured for the AI service."
	case errors.As(err, &auth):
		return "The AI service rejected the API key."
	case errors.As(err, &rl):
		return "The AI service is rate limiting requests. Wait a moment and try again."
	case errors.As(err, &maxTok):
		return "The exam was too long for one response. Try fewer questions."
	case errors.As(err, &inv):
		return "The AI service returned an exam in an unexpected format. Try again."
	case errors.As(err, &unavail):
		return "The AI service is unavailable. Try again later."
	}
	return err.Error()
}

// classifyStatus maps an HTTP status from a provider SDK error onto the
// package's error types. Statuses the SDKs could not report arrive as 0 and
// are treated as an unreachable provider.
func classifyStatus(status int, retryAfter time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ErrAuth{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// truncated reports a response cut off at the token limit.
func truncated(stopReason string, content json.RawMessage) error {
	if stopReason == "max_tokens" {
		return &ErrMaxTokensExceeded{Content: content}
	}
	return nil
}
