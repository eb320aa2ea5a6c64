package llm

import "context"

// Provider is one named LLM backend. Invoke sends a two-part prompt and
// returns the completion text.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, system, user string) (string, error)
}
