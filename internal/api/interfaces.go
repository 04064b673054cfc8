// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pdfchat/backend/internal/models"
)

// UploadHandler handles PDF upload and document management operations
type UploadHandler interface {
	HandleUploadPDF(c echo.Context) error
	HandleListDocuments(c echo.Context) error
	HandleGetDocument(c echo.Context) error
}

// FileHandler handles stored file download and deletion
type FileHandler interface {
	HandleDownload(c echo.Context) error
	HandleDeletePDF(c echo.Context) error
}

// ChatHandler handles question answering
type ChatHandler interface {
	HandleChat(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// DocumentTracker is the slice of the tracker the handlers depend on.
// This allows mocking in tests.
type DocumentTracker interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	GetByStoredName(ctx context.Context, storedName string) (*models.Document, error)
	List(ctx context.Context, limit int) ([]*models.Document, error)
	MarkFailed(ctx context.Context, id, reason string) error
	Tombstone(ctx context.Context, id string) error
	Indexed(ctx context.Context) (map[string]time.Time, error)
}

// Asker answers one question with grounded context.
type Asker interface {
	Ask(ctx context.Context, question string) (*models.ChatExchange, error)
}

// IndexCleaner removes a deleted document's entries from the vector index.
type IndexCleaner interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}
