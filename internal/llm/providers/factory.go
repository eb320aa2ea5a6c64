package providers

import (
	"fmt"
	"sort"

	"github.com/ganot/forgeline/internal/config"
	"github.com/ganot/forgeline/internal/llm"
)

// FromConfig builds one provider per configured entry, sorted by name.
func FromConfig(cfg config.LLMConfig) ([]llm.Provider, error) {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]llm.Provider, 0, len(names))
	for _, name := range names {
		pc := cfg.Providers[name]
		switch pc.Type {
		case "openai":
			out = append(out, NewOpenAI(OpenAIOptions{
				Name:        name,
				APIKey:      pc.APIKey(),
				BaseURL:     pc.BaseURL,
				Model:       pc.Model,
				MaxTokens:   pc.MaxTokens,
				Temperature: pc.Temperature,
			}))
		case "anthropic":
			out = append(out, NewAnthropic(AnthropicOptions{
				Name:        name,
				APIKey:      pc.APIKey(),
				BaseURL:     pc.BaseURL,
				Model:       pc.Model,
				MaxTokens:   pc.MaxTokens,
				Temperature: pc.Temperature,
			}))
		default:
			return nil, fmt.Errorf("provider %q: unsupported type %q", name, pc.Type)
		}
	}
	return out, nil
}

// NewGateway builds the gateway described by cfg.
func NewGateway(cfg config.LLMConfig, opts llm.Options) (*llm.Gateway, error) {
	providers, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if opts.Timeout == 0 {
		opts.Timeout = cfg.Timeout
	}
	if opts.Breaker == (llm.BreakerConfig{}) {
		opts.Breaker = llm.BreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			Cooldown:         cfg.Breaker.Cooldown,
		}
	}
	return llm.NewGateway(providers, opts)
}
