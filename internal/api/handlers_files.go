// handlers_files.go - Stored file download and deletion handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/storage"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store   storage.Store
	tracker DocumentTracker
	index   IndexCleaner
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, tracker DocumentTracker, index IndexCleaner) FileHandler {
	return &FileHandlerImpl{store: store, tracker: tracker, index: index}
}

// HandleDownload serves a stored file by its stored filename. A missing
// file is a 404, distinct from a read error.
func (h *FileHandlerImpl) HandleDownload(c echo.Context) error {
	storedName := c.Param("filename")
	path, err := h.store.Path(storedName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return NewNotFoundError("file", storedName)
		}
		return NewInternalError("failed to access file", err)
	}

	// Download under the original display name when the tracker knows it.
	downloadName := storedName
	if doc, err := h.tracker.GetByStoredName(c.Request().Context(), storedName); err == nil {
		downloadName = doc.Name
	}
	return c.Attachment(path, downloadName)
}

// HandleDeletePDF deletes a stored file. The owning document is
// tombstoned first, so an ingestion job still queued or running will not
// write index entries for it; then its existing entries are removed.
func (h *FileHandlerImpl) HandleDeletePDF(c echo.Context) error {
	storedName := c.Param("filename")
	ctx := c.Request().Context()

	doc, err := h.tracker.GetByStoredName(ctx, storedName)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return NewInternalError("failed to look up document", err)
	}
	if doc != nil {
		if err := h.tracker.Tombstone(ctx, doc.ID); err != nil {
			return NewInternalError("failed to tombstone document", err)
		}
		if err := h.index.DeleteByDocument(ctx, doc.ID); err != nil {
			// The tombstone already hides these entries from retrieval.
			c.Logger().Errorf("deleting index entries for %s: %v", doc.ID, err)
		}
	}

	if err := h.store.Delete(storedName); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{
				"success": false,
				"message": "File not found",
			})
		}
		return NewInternalError("failed to delete file", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "File deleted successfully",
	})
}
