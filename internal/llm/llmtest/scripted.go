// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"
)

// Call captures one Invoke.
type Call struct {
	System string
	User   string
}

// Provider returns scripted responses in order. When Err is set it is
// returned for every call. When responses run out, Default is returned.
// Respond, when set, takes precedence over both.
type Provider struct {
	ProviderName string
	Responses    []string
	Default      string
	Err          error
	// Block makes Invoke wait for context cancellation.
	Block bool
	// Respond computes a response from the prompt.
	Respond func(system, user string) (string, error)

	mu    sync.Mutex
	calls []Call
	next  int
}

// New creates a provider that answers every call with the given responses in order.
func New(name string, responses ...string) *Provider {
	return &Provider{ProviderName: name, Responses: responses}
}

// Failing creates a provider that always returns err.
func Failing(name string, err error) *Provider {
	return &Provider{ProviderName: name, Err: err}
}

func (p *Provider) Name() string {
	return p.ProviderName
}

func (p *Provider) Invoke(ctx context.Context, system, user string) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{System: system, User: user})
	respond := p.Respond
	err := p.Err
	block := p.Block
	var text string
	if p.next < len(p.Responses) {
		text = p.Responses[p.next]
		p.next++
	} else {
		text = p.Default
	}
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if respond != nil {
		return respond(system, user)
	}
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("llmtest: no scripted response")
	}
	return text, nil
}

// Calls returns a copy of the captured calls.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount returns how many times Invoke ran.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
