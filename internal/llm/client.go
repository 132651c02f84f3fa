// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no provider credentials are available.
var ErrNotConfigured = errors.New("LLM provider not configured")

// StreamCallback is called for each token during streaming.
type StreamCallback func(token string, index int) error

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// DefaultModel returns the model used when a request names none.
	DefaultModel() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Options configures provider selection.
type Options struct {
	Provider        Provider
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	Model           string
}

// NewClient creates the preferred provider's client, falling back to
// whichever provider has credentials. It returns ErrNotConfigured when none do.
func NewClient(opts Options) (Client, error) {
	openaiClient := func() (Client, error) {
		return NewOpenAIClient(opts.OpenAIAPIKey, opts.OpenAIBaseURL, opts.Model)
	}
	anthropicClient := func() (Client, error) {
		return NewAnthropicClient(opts.AnthropicAPIKey, opts.Model)
	}

	switch {
	case opts.Provider == ProviderAnthropic && opts.AnthropicAPIKey != "":
		return anthropicClient()
	case opts.OpenAIAPIKey != "":
		return openaiClient()
	case opts.AnthropicAPIKey != "":
		return anthropicClient()
	default:
		return nil, ErrNotConfigured
	}
}

func withSystem(req *CompletionRequest) []ChatMessage {
	if req.System == "" {
		return req.Messages
	}
	out := make([]ChatMessage, 0, len(req.Messages)+1)
	out = append(out, ChatMessage{Role: "system", Content: req.System})
	return append(out, req.Messages...)
}
