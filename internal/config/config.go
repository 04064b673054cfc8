// Package config loads the backend configuration from YAML with sensible
// defaults for local development (Redis on :6379, Qdrant on :6333).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BodyLimit    string `yaml:"body_limit"`
	ReadTimeout  int    `yaml:"read_timeout_secs"`
	WriteTimeout int    `yaml:"write_timeout_secs"`
	AllowOrigins string `yaml:"allow_origins"`
}

// StorageConfig configures the uploaded-file store.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
}

// TrackerConfig configures the document status database.
type TrackerConfig struct {
	Path string `yaml:"path"`
}

// QueueConfig configures the Redis-backed ingestion queue.
type QueueConfig struct {
	RedisAddr   string `yaml:"redis_addr"`
	Concurrency int    `yaml:"concurrency"`
	TaskTimeout int    `yaml:"task_timeout_secs"`
}

// ChunkerConfig configures how page text is split into passages.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig pins the embedding model used at both ingestion and
// query time. Changing the model changes the collection the index writes
// to, so vectors from different models never mix.
type EmbeddingConfig struct {
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// CompletionConfig configures the answer-generation model.
type CompletionConfig struct {
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for the vector index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig configures query-time passage selection.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// Config is the root configuration for both the server and the worker.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Tracker    TrackerConfig    `yaml:"tracker"`
	Queue      QueueConfig      `yaml:"queue"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// ServerAddr returns the host:port the HTTP server listens on.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EmbeddingTimeout returns the per-call embedding timeout.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSecs) * time.Second
}

// CompletionTimeout returns the per-call completion timeout.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.Completion.TimeoutSecs) * time.Second
}

// QdrantTimeout returns the per-call vector index timeout.
func (c *Config) QdrantTimeout() time.Duration {
	return time.Duration(c.Qdrant.TimeoutSecs) * time.Second
}

// TaskTimeout returns the whole-document ingestion deadline.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Queue.TaskTimeout) * time.Second
}

// CollectionName returns the qdrant collection pinned to the configured
// embedding model. A differently configured model reads and writes a
// different collection, so embedding spaces cannot silently mix between
// ingestion and query time.
func (c *Config) CollectionName() string {
	slug := strings.NewReplacer(".", "-", "/", "-", ":", "-").Replace(c.Embedding.Model)
	return fmt.Sprintf("%s-%s", c.Qdrant.Collection, slug)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "32M"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 60
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Tracker.Path == "" {
		cfg.Tracker.Path = "data/documents.duckdb"
	}
	if cfg.Queue.RedisAddr == "" {
		cfg.Queue.RedisAddr = "localhost:6379"
	}
	if cfg.Queue.Concurrency == 0 {
		cfg.Queue.Concurrency = 4
	}
	if cfg.Queue.TaskTimeout == 0 {
		cfg.Queue.TaskTimeout = 600
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 400
	}
	if cfg.Chunker.Size > 0 && cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 50
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 30
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-4.1"
	}
	if cfg.Completion.TimeoutSecs == 0 {
		cfg.Completion.TimeoutSecs = 60
	}
	if cfg.Qdrant.URL == "" {
		cfg.Qdrant.URL = "http://localhost:6333"
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "pdf-passages"
	}
	if cfg.Qdrant.TimeoutSecs == 0 {
		cfg.Qdrant.TimeoutSecs = 15
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 2
	}
}
