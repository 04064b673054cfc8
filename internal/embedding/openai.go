// Package embedding maps text to fixed-dimension vectors through an
// OpenAI-compatible provider. The same pinned client configuration is used
// at ingestion and query time; the vector index collection is derived from
// the model name so differently configured embedding spaces never mix.
package embedding

import (
	"context"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdfchat/backend/internal/models"
)

// Client converts UTF-8 text into embedding vectors.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// OpenAIClient implements Client against the OpenAI embeddings API (or any
// compatible endpoint via a custom base URL).
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// Config configures the OpenAI embeddings client.
type Config struct {
	Model     string
	APIKeyEnv string
	BaseURL   string
	Timeout   time.Duration
}

// NewOpenAIClient creates the client, reading the API key from the
// configured environment variable.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
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
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

// ModelName returns the pinned embedding model.
func (c *OpenAIClient) ModelName() string { return c.model }

// Embed returns the embedding vector for one text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds several texts in a single request, preserving order.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			models.ErrEmbedding, len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", models.ErrEmbedding, d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
