// Package storage keeps uploaded PDFs on local disk under generated stable
// filenames. Document metadata lives in the tracker, not here.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdfchat/backend/internal/models"
)

// File is the read handle returned by Open. *os.File satisfies it; the
// extractor needs both seeking (validation) and random access (page text).
type File interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

// Store defines the interface for uploaded-file storage.
type Store interface {
	Save(name string, r io.Reader) (storedName string, size int64, err error)
	Open(storedName string) (File, int64, error)
	Path(storedName string) (string, error)
	Delete(storedName string) error
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	uploadDir string
}

// NewLocalStore creates a LocalStore rooted at uploadDir, creating the
// directory if needed.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStore{uploadDir: uploadDir}, nil
}

// Save streams the upload to disk and returns the generated stored
// filename. The original extension is preserved so downloads keep their
// type; the rest of the name is a fresh UUID.
func (s *LocalStore) Save(name string, r io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(name))
	storedName := uuid.New().String() + ext
	path := filepath.Join(s.uploadDir, storedName)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("writing file: %w", err)
	}
	return storedName, size, nil
}

// Open returns a read handle and size for a stored file.
func (s *LocalStore) Open(storedName string) (File, int64, error) {
	path, err := s.Path(storedName)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat file: %w", err)
	}
	return f, st.Size(), nil
}

// Path returns the absolute path of a stored file, or models.ErrNotFound
// if it does not exist.
func (s *LocalStore) Path(storedName string) (string, error) {
	// Stored names are generated server-side, but never trust path input.
	clean := filepath.Base(storedName)
	path := filepath.Join(s.uploadDir, clean)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", models.ErrNotFound, clean)
		}
		return "", fmt.Errorf("stat file: %w", err)
	}
	return path, nil
}

// Delete removes a stored file. A missing file is models.ErrNotFound.
func (s *LocalStore) Delete(storedName string) error {
	path, err := s.Path(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
