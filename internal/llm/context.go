package llm

import "context"

type callKey struct{}

// Call labels an LLM request for logs and stored events: what it is for and
// which exam parameters it serves.
type Call struct {
	Purpose  string
	Language string
	Level    string
}

// WithCall attaches call labels to ctx.
func WithCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// CallFrom returns the labels on ctx. Purpose is "unknown" when unset.
func CallFrom(ctx context.Context) Call {
	c, _ := ctx.Value(callKey{}).(Call)
	if c.Purpose == "" {
		c.Purpose = "unknown"
	}
	return c
}

// WithPurpose sets the purpose and keeps any other labels already on ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	c, _ := ctx.Value(callKey{}).(Call)
	c.Purpose = purpose
	return WithCall(ctx, c)
}

func PurposeFrom(ctx context.Context) string {
	return CallFrom(ctx).Purpose
}
