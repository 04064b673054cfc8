package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/pdfchat/backend/internal/chunker"
	"github.com/pdfchat/backend/internal/config"
	"github.com/pdfchat/backend/internal/embedding"
	"github.com/pdfchat/backend/internal/extractor"
	"github.com/pdfchat/backend/internal/pipeline"
	"github.com/pdfchat/backend/internal/queue"
	"github.com/pdfchat/backend/internal/storage"
	"github.com/pdfchat/backend/internal/tracker"
	"github.com/pdfchat/backend/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(log, "loading configuration", err)
	}

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		fatal(log, "initializing storage", err)
	}

	docTracker, err := tracker.NewDuckStore(cfg.Tracker.Path)
	if err != nil {
		fatal(log, "opening document tracker", err)
	}
	defer docTracker.Close()

	splitter, err := chunker.NewSplitter(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		// Configuration bug, not a runtime fault; refuse to start.
		fatal(log, "validating chunker configuration", err)
	}

	embedder, err := embedding.NewOpenAIClient(embedding.Config{
		Model:     cfg.Embedding.Model,
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		BaseURL:   cfg.Embedding.BaseURL,
		Timeout:   cfg.EmbeddingTimeout(),
	})
	if err != nil {
		fatal(log, "configuring embedding client", err)
	}

	index := vectorstore.NewQdrant(vectorstore.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.CollectionName(),
		Timeout:    cfg.QdrantTimeout(),
	})

	pipe := pipeline.New(fileStore, docTracker, extractor.New(), splitter, embedder, index, log)

	log.Info("ingestion worker starting",
		"redis", cfg.Queue.RedisAddr,
		"concurrency", cfg.Queue.Concurrency,
		"embedding_model", cfg.Embedding.Model,
		"collection", cfg.CollectionName(),
	)

	srv := queue.NewServer(cfg.Queue.RedisAddr, cfg.Queue.Concurrency, log)
	if err := srv.Run(pipe.Run); err != nil {
		fatal(log, "running worker", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	fmt.Fprintf(os.Stderr, "worker: %s: %v\n", msg, err)
	os.Exit(1)
}
