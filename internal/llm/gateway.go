// Package llm is the gateway between pipeline stages and LLM providers. It
// owns call timeouts, error classification and per-provider circuit breaking.
// It never retries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/metrics"
)

// DefaultTimeout bounds a provider call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Options configures a Gateway.
type Options struct {
	Timeout time.Duration
	Breaker BreakerConfig
	Logger  *slog.Logger
}

// Gateway dispatches prompts to named providers.
type Gateway struct {
	providers map[string]Provider
	breakers  map[string]*breaker
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGateway registers providers by their Name.
func NewGateway(providers []Provider, opts Options) (*Gateway, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	g := &Gateway{
		providers: make(map[string]Provider, len(providers)),
		breakers:  make(map[string]*breaker, len(providers)),
		timeout:   timeout,
		logger:    opts.Logger,
	}
	for _, p := range providers {
		name := p.Name()
		if _, dup := g.providers[name]; dup {
			return nil, fmt.Errorf("duplicate provider %q", name)
		}
		g.providers[name] = p
		g.breakers[name] = newBreaker(opts.Breaker)
	}
	return g, nil
}

// Providers lists registered provider names in sorted order.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for name := range g.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate sends the prompt to the named provider. The call is bounded by the
// gateway timeout; the returned error, if any, matches one of
// ErrProviderUnavailable, ErrProviderTimeout or ErrProviderRejected.
func (g *Gateway) Generate(ctx context.Context, provider, system, user string) (string, error) {
	p, ok := g.providers[provider]
	if !ok {
		return "", Unavailable(provider, fmt.Errorf("unknown provider"))
	}

	b := g.breakers[provider]
	if !b.allow() {
		metrics.RecordLLMCall(provider, "short_circuit", 0)
		return "", Unavailable(provider, ErrBreakerOpen)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.Invoke(callCtx, system, user)
	if err == nil && strings.TrimSpace(text) == "" {
		err = Rejected(provider, errors.New("empty completion"))
	}
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = Timeout(provider, fmt.Errorf("%w after %s", context.DeadlineExceeded, g.timeout))
		} else {
			err = Classify(provider, err)
		}
	}
	elapsed := time.Since(start)

	b.record(err)
	metrics.RecordLLMCall(provider, Outcome(err), elapsed)

	if err != nil {
		if g.logger != nil {
			g.logger.Debug("provider call failed", "provider", provider, "duration", elapsed, "error", err)
		}
		return "", err
	}
	return text, nil
}
