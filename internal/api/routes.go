// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/pdfchat/backend/internal/queue"
	"github.com/pdfchat/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Tracker  DocumentTracker
	Enqueuer queue.Enqueuer
	Asker    Asker
	Index    IndexCleaner
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Upload UploadHandler
	File   FileHandler
	Chat   ChatHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version),
		Upload: NewUploadHandler(deps.Store, deps.Tracker, deps.Enqueuer),
		File:   NewFileHandler(deps.Store, deps.Tracker, deps.Index),
		Chat:   NewChatHandler(deps.Asker),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/", handlers.Health.HandleHealth)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	apiGroup.POST("/upload/pdf", handlers.Upload.HandleUploadPDF)
	apiGroup.GET("/documents", handlers.Upload.HandleListDocuments)
	apiGroup.GET("/documents/:id", handlers.Upload.HandleGetDocument)

	apiGroup.GET("/download/:filename", handlers.File.HandleDownload)
	apiGroup.DELETE("/delete/pdf/:filename", handlers.File.HandleDeletePDF)

	apiGroup.GET("/chat", handlers.Chat.HandleChat)
}
