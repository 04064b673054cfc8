// mock_tracker.go - In-memory document tracker for testing
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pdfchat/backend/internal/models"
)

// MockTracker implements the tracker interfaces used by the API handlers,
// the pipeline and the retriever. It enforces the same status transition
// guards as the DuckDB store.
type MockTracker struct {
	mu   sync.RWMutex
	docs map[string]*models.Document

	CreateErr  error
	IndexedErr error
}

// NewMockTracker creates an empty tracker.
func NewMockTracker() *MockTracker {
	return &MockTracker{docs: make(map[string]*models.Document)}
}

// Seed inserts a document as-is, bypassing transition guards.
func (m *MockTracker) Seed(doc *models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.docs[doc.ID] = &cp
}

func (m *MockTracker) Create(ctx context.Context, doc *models.Document) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	cp.Status = models.StatusPending
	m.docs[doc.ID] = &cp
	return nil
}

func (m *MockTracker) Get(ctx context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	cp := *doc
	return &cp, nil
}

func (m *MockTracker) GetByStoredName(ctx context.Context, storedName string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.docs {
		if doc.StoredName == storedName {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrNotFound, storedName)
}

func (m *MockTracker) List(ctx context.Context, limit int) ([]*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*models.Document
	for _, doc := range m.docs {
		cp := *doc
		docs = append(docs, &cp)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockTracker) MarkIndexed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.Status != models.StatusPending {
		return fmt.Errorf("%w: no pending document %s", models.ErrNotFound, id)
	}
	now := time.Now().UTC()
	doc.Status = models.StatusIndexed
	doc.IndexedAt = &now
	doc.Error = ""
	return nil
}

func (m *MockTracker) MarkFailed(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.Status != models.StatusPending {
		return fmt.Errorf("%w: no pending document %s", models.ErrNotFound, id)
	}
	doc.Status = models.StatusFailed
	doc.Error = reason
	return nil
}

func (m *MockTracker) Tombstone(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	doc.Status = models.StatusTombstoned
	return nil
}

func (m *MockTracker) Indexed(ctx context.Context) (map[string]time.Time, error) {
	if m.IndexedErr != nil {
		return nil, m.IndexedErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]time.Time)
	for id, doc := range m.docs {
		if doc.Status == models.StatusIndexed && doc.IndexedAt != nil {
			out[id] = *doc.IndexedAt
		}
	}
	return out, nil
}
