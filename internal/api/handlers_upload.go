// handlers_upload.go - PDF upload and document status handlers
package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/queue"
	"github.com/pdfchat/backend/internal/storage"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store    storage.Store
	tracker  DocumentTracker
	enqueuer queue.Enqueuer
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(store storage.Store, tracker DocumentTracker, enqueuer queue.Enqueuer) UploadHandler {
	return &UploadHandlerImpl{store: store, tracker: tracker, enqueuer: enqueuer}
}

// HandleUploadPDF accepts a multipart PDF upload, records a pending
// document and enqueues its ingestion job. Indexing is asynchronous: the
// caller polls document status to learn when the file becomes askable.
func (h *UploadHandlerImpl) HandleUploadPDF(c echo.Context) error {
	file, err := c.FormFile("pdf")
	if err != nil {
		return NewBadRequestError("no pdf file provided", err)
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return NewBadRequestError("only .pdf files are accepted", nil)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	storedName, size, err := h.store.Save(file.Filename, src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		Name:       file.Filename,
		StoredName: storedName,
		Size:       size,
		Status:     models.StatusPending,
		UploadedAt: time.Now().UTC(),
	}
	ctx := c.Request().Context()
	if err := h.tracker.Create(ctx, doc); err != nil {
		return NewInternalError("failed to record document", err)
	}

	job := models.IngestionJob{
		DocumentID: doc.ID,
		Name:       doc.Name,
		StoredName: doc.StoredName,
	}
	if err := h.enqueuer.EnqueueIngestion(ctx, job); err != nil {
		// Without a queued job the document can never be indexed; settle
		// it now so the caller is not left polling a dead pending state.
		reason := fmt.Sprintf("ingestion queue unavailable: %v", err)
		if ferr := h.tracker.MarkFailed(ctx, doc.ID, reason); ferr != nil {
			c.Logger().Errorf("marking document failed after enqueue error: %v", ferr)
		}
		return NewServiceUnavailableError("upload accepted but could not be queued for indexing", err)
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"message":        "uploaded",
		"documentId":     doc.ID,
		"storedFilename": doc.StoredName,
		"status":         doc.Status,
	})
}

// HandleListDocuments returns recent documents with ingestion status,
// newest first.
func (h *UploadHandlerImpl) HandleListDocuments(c echo.Context) error {
	docs, err := h.tracker.List(c.Request().Context(), 50)
	if err != nil {
		return NewInternalError("failed to list documents", err)
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	return c.JSON(http.StatusOK, docs)
}

// HandleGetDocument returns one document with its status and, for failed
// ingestions, the retained failure reason.
func (h *UploadHandlerImpl) HandleGetDocument(c echo.Context) error {
	id := c.Param("id")
	doc, err := h.tracker.Get(c.Request().Context(), id)
	if err != nil {
		return NewNotFoundError("document", id)
	}
	return c.JSON(http.StatusOK, doc)
}
