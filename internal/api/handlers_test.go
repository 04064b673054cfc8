package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/testutil"
)

// mockAsker is an Asker double for chat handler tests.
type mockAsker struct {
	exchange *models.ChatExchange
	err      error
	lastQ    string
}

func (m *mockAsker) Ask(ctx context.Context, question string) (*models.ChatExchange, error) {
	m.lastQ = question
	if m.err != nil {
		return nil, m.err
	}
	return m.exchange, nil
}

// mockIndexCleaner records index deletions for delete handler tests.
type mockIndexCleaner struct {
	deleted []string
	err     error
}

func (m *mockIndexCleaner) DeleteByDocument(ctx context.Context, documentID string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, documentID)
	return nil
}

// serve runs a handler and renders any returned error through the same
// error handler the server installs, so tests observe real responses.
func serve(t *testing.T, h echo.HandlerFunc, req *http.Request, pathParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range pathParams {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func pdfUploadRequest(t *testing.T, fieldName, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload/pdf", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestHandleUploadPDF_Accepted(t *testing.T) {
	store := testutil.NewMockStorage()
	tracker := testutil.NewMockTracker()
	enqueuer := testutil.NewMockEnqueuer()
	h := NewUploadHandler(store, tracker, enqueuer)

	req := pdfUploadRequest(t, "pdf", "report.pdf", testutil.BuildPDF("hello"))
	rec := serve(t, h.HandleUploadPDF, req, nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "uploaded", resp["message"])
	assert.Equal(t, string(models.StatusPending), resp["status"])
	assert.NotEmpty(t, resp["documentId"])
	assert.NotEmpty(t, resp["storedFilename"])

	// File stored, document recorded pending, one job enqueued.
	assert.True(t, store.Has(resp["storedFilename"].(string)))
	doc, err := tracker.Get(context.Background(), resp["documentId"].(string))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Equal(t, models.StatusPending, doc.Status)
	require.Len(t, enqueuer.Jobs, 1)
	assert.Equal(t, doc.ID, enqueuer.Jobs[0].DocumentID)
	assert.Equal(t, doc.StoredName, enqueuer.Jobs[0].StoredName)
}

func TestHandleUploadPDF_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		field string
		file  string
	}{
		{name: "missing file field", field: "attachment", file: "report.pdf"},
		{name: "wrong extension", field: "pdf", file: "notes.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUploadHandler(testutil.NewMockStorage(), testutil.NewMockTracker(), testutil.NewMockEnqueuer())
			req := pdfUploadRequest(t, tt.field, tt.file, []byte("content"))
			rec := serve(t, h.HandleUploadPDF, req, nil)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "BAD_REQUEST", resp.Code)
		})
	}
}

func TestHandleUploadPDF_QueueDownSettlesDocument(t *testing.T) {
	store := testutil.NewMockStorage()
	tracker := testutil.NewMockTracker()
	enqueuer := testutil.NewMockEnqueuer()
	enqueuer.Err = errors.New("redis refused connection")
	h := NewUploadHandler(store, tracker, enqueuer)

	req := pdfUploadRequest(t, "pdf", "report.pdf", []byte("%PDF"))
	rec := serve(t, h.HandleUploadPDF, req, nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// The document must not be left pending forever with no job behind it.
	docs, err := tracker.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.StatusFailed, docs[0].Status)
	assert.Contains(t, docs[0].Error, "queue unavailable")
}

func TestHandleGetDocument(t *testing.T) {
	tracker := testutil.NewMockTracker()
	tracker.Seed(&models.Document{
		ID:     "doc-1",
		Name:   "report.pdf",
		Status: models.StatusFailed,
		Error:  "pdf extraction failed: bad xref",
	})
	h := NewUploadHandler(testutil.NewMockStorage(), tracker, testutil.NewMockEnqueuer())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil)
	rec := serve(t, h.HandleGetDocument, req, map[string]string{"id": "doc-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var doc models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, models.StatusFailed, doc.Status)
	assert.Contains(t, doc.Error, "extraction failed", "failure reason is retained for inspection")

	rec = serve(t, h.HandleGetDocument,
		httptest.NewRequest(http.MethodGet, "/api/documents/ghost", nil),
		map[string]string{"id": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListDocuments(t *testing.T) {
	tracker := testutil.NewMockTracker()
	tracker.Seed(&models.Document{ID: "a", Name: "a.pdf", Status: models.StatusIndexed,
		UploadedAt: time.Now().UTC()})
	tracker.Seed(&models.Document{ID: "b", Name: "b.pdf", Status: models.StatusPending,
		UploadedAt: time.Now().UTC().Add(-time.Hour)})
	h := NewUploadHandler(testutil.NewMockStorage(), tracker, testutil.NewMockEnqueuer())

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := serve(t, h.HandleListDocuments, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var docs []models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID, "newest first")
}

func TestHandleChat(t *testing.T) {
	asker := &mockAsker{exchange: &models.ChatExchange{
		Question: "Why do cats purr?",
		Answer:   "Because they are content (page 2).",
		Sources: models.RetrievalResult{
			{Text: "cats purr when content", Page: 2, DocumentID: "doc-1", Score: 0.9},
		},
	}}
	h := NewChatHandler(asker)

	req := httptest.NewRequest(http.MethodGet, "/api/chat?message=Why+do+cats+purr%3F", nil)
	rec := serve(t, h.HandleChat, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Why do cats purr?", asker.lastQ)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Because they are content (page 2).", resp["message"])
	docs, ok := resp["docs"].([]any)
	require.True(t, ok)
	assert.Len(t, docs, 1)
}

func TestHandleChat_MissingMessage(t *testing.T) {
	h := NewChatHandler(&mockAsker{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := serve(t, h.HandleChat, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_UpstreamFaultsMapTo502(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "embedding fault", err: fmt.Errorf("embedding query: %w", models.ErrEmbedding)},
		{name: "index fault", err: fmt.Errorf("searching index: %w", models.ErrIndex)},
		{name: "completion fault", err: fmt.Errorf("%w: rate limited", models.ErrCompletion)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewChatHandler(&mockAsker{err: tt.err})
			req := httptest.NewRequest(http.MethodGet, "/api/chat?message=hi", nil)
			rec := serve(t, h.HandleChat, req, nil)

			require.Equal(t, http.StatusBadGateway, rec.Code)
			var resp APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "UPSTREAM_ERROR", resp.Code)
			assert.Equal(t, "could not answer right now", resp.Message)
		})
	}
}

func TestHandleDeletePDF(t *testing.T) {
	store := testutil.NewMockStorage()
	store.Put("stored-1.pdf", []byte("%PDF"))
	tracker := testutil.NewMockTracker()
	tracker.Seed(&models.Document{
		ID: "doc-1", Name: "report.pdf", StoredName: "stored-1.pdf",
		Status: models.StatusIndexed,
	})
	cleaner := &mockIndexCleaner{}
	h := NewFileHandler(store, tracker, cleaner)

	req := httptest.NewRequest(http.MethodDelete, "/api/delete/pdf/stored-1.pdf", nil)
	rec := serve(t, h.HandleDeletePDF, req, map[string]string{"filename": "stored-1.pdf"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	assert.False(t, store.Has("stored-1.pdf"))
	assert.Equal(t, []string{"doc-1"}, cleaner.deleted)
	doc, err := tracker.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTombstoned, doc.Status)
}

func TestHandleDeletePDF_MissingFile(t *testing.T) {
	h := NewFileHandler(testutil.NewMockStorage(), testutil.NewMockTracker(), &mockIndexCleaner{})

	req := httptest.NewRequest(http.MethodDelete, "/api/delete/pdf/ghost.pdf", nil)
	rec := serve(t, h.HandleDeletePDF, req, map[string]string{"filename": "ghost.pdf"})

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
}

func TestHandleDeletePDF_IndexCleanupFailureStillDeletes(t *testing.T) {
	store := testutil.NewMockStorage()
	store.Put("stored-1.pdf", []byte("%PDF"))
	tracker := testutil.NewMockTracker()
	tracker.Seed(&models.Document{
		ID: "doc-1", StoredName: "stored-1.pdf", Status: models.StatusIndexed,
	})
	cleaner := &mockIndexCleaner{err: errors.New("qdrant unreachable")}
	h := NewFileHandler(store, tracker, cleaner)

	req := httptest.NewRequest(http.MethodDelete, "/api/delete/pdf/stored-1.pdf", nil)
	rec := serve(t, h.HandleDeletePDF, req, map[string]string{"filename": "stored-1.pdf"})

	// The tombstone already hides the entries; the delete still succeeds.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, store.Has("stored-1.pdf"))
	doc, err := tracker.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTombstoned, doc.Status)
}

func TestHandleDownload_Missing(t *testing.T) {
	h := NewFileHandler(testutil.NewMockStorage(), testutil.NewMockTracker(), &mockIndexCleaner{})

	req := httptest.NewRequest(http.MethodGet, "/api/download/ghost.pdf", nil)
	rec := serve(t, h.HandleDownload, req, map[string]string{"filename": "ghost.pdf"})

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestHandleHealth(t *testing.T) {
	h := NewHealthHandler("1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := serve(t, h.HandleHealth, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1.2.3", resp["version"])
}
