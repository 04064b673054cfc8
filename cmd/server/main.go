package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pdfchat/backend/internal/api"
	"github.com/pdfchat/backend/internal/config"
	"github.com/pdfchat/backend/internal/embedding"
	"github.com/pdfchat/backend/internal/queue"
	"github.com/pdfchat/backend/internal/rag"
	"github.com/pdfchat/backend/internal/storage"
	"github.com/pdfchat/backend/internal/tracker"
	"github.com/pdfchat/backend/internal/vectorstore"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Secrets (OPENAI_API_KEY) come from the environment; .env is a
	// local-development convenience.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	docTracker, err := tracker.NewDuckStore(cfg.Tracker.Path)
	if err != nil {
		fmt.Printf("Failed to open document tracker: %v\n", err)
		os.Exit(1)
	}
	defer docTracker.Close()

	embedder, err := embedding.NewOpenAIClient(embedding.Config{
		Model:     cfg.Embedding.Model,
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		BaseURL:   cfg.Embedding.BaseURL,
		Timeout:   cfg.EmbeddingTimeout(),
	})
	if err != nil {
		fmt.Printf("Failed to configure embedding client: %v\n", err)
		os.Exit(1)
	}

	index := vectorstore.NewQdrant(vectorstore.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.CollectionName(),
		Timeout:    cfg.QdrantTimeout(),
	})

	completer, err := rag.NewOpenAICompleter(rag.CompleterConfig{
		Model:     cfg.Completion.Model,
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		BaseURL:   cfg.Embedding.BaseURL,
		MaxTokens: cfg.Completion.MaxTokens,
		Timeout:   cfg.CompletionTimeout(),
	})
	if err != nil {
		fmt.Printf("Failed to configure completion client: %v\n", err)
		os.Exit(1)
	}

	queueClient := queue.NewClient(cfg.Queue.RedisAddr, cfg.TaskTimeout())
	defer queueClient.Close()

	ragService := rag.NewService(
		rag.NewRetriever(embedder, index, docTracker, cfg.Retrieval.TopK),
		rag.NewComposer(completer),
	)

	handlers := api.NewHandlers(&api.Dependencies{
		Store:    fileStore,
		Tracker:  docTracker,
		Enqueuer: queueClient,
		Asker:    ragService,
		Index:    index,
		Version:  Version,
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/" || strings.HasSuffix(path, "/health")
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	origins := []string{"*"}
	if cfg.Server.AllowOrigins != "" {
		origins = strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	api.RegisterRoutes(e, handlers)

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	fmt.Printf("pdfchat server %s (built %s) listening on http://%s\n", Version, BuildTime, cfg.ServerAddr())
	e.Logger.Fatal(e.StartServer(s))
}
