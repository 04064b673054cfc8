// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/storage"
)

// MockStorage implements storage.Store in memory for tests.
type MockStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
	next  int

	SaveErr error
}

// NewMockStorage creates an empty mock store.
func NewMockStorage() *MockStorage {
	return &MockStorage{files: make(map[string][]byte)}
}

// Put seeds a stored file directly.
func (m *MockStorage) Put(storedName string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[storedName] = data
}

func (m *MockStorage) Save(name string, r io.Reader) (string, int64, error) {
	if m.SaveErr != nil {
		return "", 0, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	storedName := fmt.Sprintf("stored-%d.pdf", m.next)
	m.files[storedName] = data
	return storedName, int64(len(data)), nil
}

func (m *MockStorage) Open(storedName string) (storage.File, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[storedName]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", models.ErrNotFound, storedName)
	}
	return nopCloser{bytes.NewReader(data)}, int64(len(data)), nil
}

func (m *MockStorage) Path(storedName string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[storedName]; !ok {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, storedName)
	}
	return "/mock/" + storedName, nil
}

func (m *MockStorage) Delete(storedName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[storedName]; !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, storedName)
	}
	delete(m.files, storedName)
	return nil
}

// Has reports whether a stored file still exists.
func (m *MockStorage) Has(storedName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[storedName]
	return ok
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }
