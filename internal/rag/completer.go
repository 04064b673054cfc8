package rag

import (
	"context"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdfchat/backend/internal/models"
)

// Completer sends one synchronous completion request.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAICompleter implements Completer against the OpenAI chat API.
type OpenAICompleter struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// CompleterConfig configures the completion client.
type CompleterConfig struct {
	Model     string
	APIKeyEnv string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// NewOpenAICompleter creates the client, reading the API key from the
// configured environment variable.
func NewOpenAICompleter(cfg CompleterConfig) (*OpenAICompleter, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OpenAICompleter{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   timeout,
	}, nil
}

// Complete sends the grounding instruction and the verbatim question.
// Failures are models.ErrCompletion and are not retried here: completion
// calls are not idempotent from the caller's perspective, and retry
// latency/cost trade-offs belong to the caller.
func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", models.ErrCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
