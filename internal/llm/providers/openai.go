// Package providers implements llm.Provider adapters for the supported wire
// protocols.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/forgeline/internal/llm"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to the OpenAI chat completions API or any compatible endpoint.
type OpenAIProvider struct {
	name        string
	model       string
	maxTokens   int
	temperature *float64
	client      *openai.Client
}

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature *float64
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(opts OpenAIOptions) *OpenAIProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	return &OpenAIProvider{
		name:        opts.Name,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		client:      openai.NewClientWithConfig(cfg),
	}
}

// Name returns the configured provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Invoke sends a system + user message pair and returns the first choice.
func (p *OpenAIProvider) Invoke(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: p.maxTokens,
	}
	if p.temperature != nil {
		req.Temperature = float32(*p.temperature)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.Rejected(p.name, errors.New("no choices in response"))
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", llm.Rejected(p.name, errors.New("completion blocked by content filter"))
	}
	return choice.Message.Content, nil
}

func (p *OpenAIProvider) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.Timeout(p.name, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return llm.FromStatus(p.name, apiErr.HTTPStatusCode, fmt.Errorf("%s", apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return llm.FromStatus(p.name, reqErr.HTTPStatusCode, reqErr.Err)
	}

	return llm.Unavailable(p.name, err)
}
