package llm

import (
	"context"
	"encoding/json"
)

// Provider generates JSON from a prompt. Implementations wrap one vendor SDK;
// decorators (retry, timeout, logging) wrap other Providers.
type Provider interface {
	// Generate returns the model's output. When req.Schema is set the
	// output has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	ModelID() string
}

// Request is a single generation call. Exam generation, validation and
// correction each send one user message under a shared system prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema switches the provider to its structured output mode. Without
	// it Content is the raw model text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]; zero leaves the vendor default.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document. Name doubles as the cache key for
// the compiled form and as the OpenAI response_format name, so it must be
// unique and kebab-case ("language-exam", "exam-review").
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is "end" or "max_tokens" across all vendors.
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
