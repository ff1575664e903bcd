package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/privata-labs/privata/config"
	"github.com/privata-labs/privata/services"
	"github.com/privata-labs/privata/services/agent"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Adapter implements the agent.Caller interface for OpenAI
type Adapter struct {
	config     config.OpenAIConfig
	httpClient *http.Client
}

// NewAdapter creates a new OpenAI adapter
func NewAdapter(cfg config.OpenAIConfig) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Adapter{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "openai"
}

// chatRequest is the OpenAI chat completions request body
type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []agent.Message `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

// chatResponse is the OpenAI chat completions response body
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete performs a chat completion request
func (a *Adapter) Complete(ctx context.Context, req *agent.CompletionRequest) (*agent.CompletionResponse, error) {
	startTime := time.Now()

	model := req.Model
	if model == "" {
		model = a.config.Model
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, services.WrapInternal("marshal completion request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, services.WrapInternal("create completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.WrapTransport("completion request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, services.WrapTransport("read completion response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.classifyError(httpResp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, services.WrapTransport("unmarshal completion response", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, services.WrapTransport("empty response from provider", nil)
	}

	return &agent.CompletionResponse{
		Content:          parsed.Choices[0].Message.Content,
		Model:            parsed.Model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		Latency:          time.Since(startTime),
	}, nil
}

// classifyError maps an OpenAI error response onto the domain taxonomy.
// 401/403 is an auth failure and never retried; everything else is transport.
func (a *Adapter) classifyError(statusCode int, body []byte) error {
	message := fmt.Sprintf("provider returned status %d", statusCode)
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		message = parsed.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.NewDomainError(services.ErrorTypeAuth, message, nil).
			WithDetail("status_code", statusCode)
	default:
		return services.NewDomainError(services.ErrorTypeTransport, message, nil).
			WithDetail("status_code", statusCode)
	}
}
