package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ganot/forgeline/internal/llm"
)

const (
	anthropicVersion = "2023-06-01"
	anthropicBaseURL = "https://api.anthropic.com"
	defaultMaxTokens = 4096
)

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	name        string
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature *float64
	client      *http.Client
}

// AnthropicOptions configures an AnthropicProvider.
type AnthropicOptions struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature *float64
	HTTPClient  *http.Client
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(opts AnthropicOptions) *AnthropicProvider {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &AnthropicProvider{
		name:        opts.Name,
		baseURL:     baseURL,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		client:      client,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Name returns the configured provider name.
func (p *AnthropicProvider) Name() string {
	return p.name
}

// Invoke posts a single-turn message and concatenates the text blocks of the reply.
func (p *AnthropicProvider) Invoke(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: user}},
		Temperature: p.temperature,
	})
	if err != nil {
		return "", llm.Rejected(p.name, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", llm.Unavailable(p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", anthropicVersion)
	if p.apiKey != "" {
		req.Header.Set("x-api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", llm.Timeout(p.name, err)
		}
		return "", llm.Unavailable(p.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.Unavailable(p.name, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr anthropicError
		cause := fmt.Errorf("http status %d", resp.StatusCode)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			cause = fmt.Errorf("%s: %s", apiErr.Error.Type, apiErr.Error.Message)
		}
		return "", llm.FromStatus(p.name, resp.StatusCode, cause)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", llm.Rejected(p.name, fmt.Errorf("parse response: %w", err))
	}
	if parsed.StopReason == "refusal" {
		return "", llm.Rejected(p.name, errors.New("model refused the request"))
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
