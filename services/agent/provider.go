package agent

import (
	"context"
	"time"
)

// Caller is the single outbound dependency of an agent step: one
// completion-style call against a model provider. Implementations classify
// their failures with the domain error taxonomy (auth vs transport) so the
// step can decide whether to retry.
type Caller interface {
	// Name returns the provider name (e.g. "openai").
	Name() string

	// Complete performs a completion request.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Message is a single message in a completion conversation.
type Message struct {
	// Role can be "system" or "user"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic completion request.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// CompletionResponse is a provider-agnostic completion response.
type CompletionResponse struct {
	Content          string        `json:"content"`
	Model            string        `json:"model"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Latency          time.Duration `json:"latency"`
}
