package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrLLMNotConfigured is returned by HealthCheck when no API key is set.
var ErrLLMNotConfigured = errors.New("llm not configured")

// LLMConfig holds the chat-completion provider settings (Groq by default).
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LLMClient is an OpenAI-compatible chat-completion client. Only its
// availability is checked; no endpoint calls completions yet.
type LLMClient struct {
	client *openai.Client
	model  string
}

// NewLLMClient creates a client. A nil client is returned when APIKey is empty.
func NewLLMClient(cfg LLMConfig) *LLMClient {
	if cfg.APIKey == "" {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &LLMClient{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}
}

// HealthCheck lists models and verifies the configured one is served.
func (c *LLMClient) HealthCheck(ctx context.Context) error {
	if c == nil {
		return ErrLLMNotConfigured
	}

	models, err := c.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if c.model == "" {
		return nil
	}
	for _, m := range models.Models {
		if m.ID == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %s not served by provider", c.model)
}
