// Package tracker persists document ingestion status in a DuckDB file.
// It is the source of truth the worker writes and the query path reads;
// the retriever only serves passages from documents recorded as indexed.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/pdfchat/backend/internal/models"
)

// DuckStore is a DuckDB-backed document tracker.
type DuckStore struct {
	db     *sql.DB
	dbPath string
}

// NewDuckStore opens (or creates) the tracker database at dbPath.
func NewDuckStore(dbPath string) (*DuckStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating tracker directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening tracker database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id          VARCHAR PRIMARY KEY,
			name        VARCHAR NOT NULL,
			stored_name VARCHAR NOT NULL,
			size        BIGINT NOT NULL,
			status      VARCHAR NOT NULL,
			error       VARCHAR,
			uploaded_at TIMESTAMP NOT NULL,
			indexed_at  TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	return &DuckStore{db: db, dbPath: dbPath}, nil
}

// Close releases the database handle.
func (s *DuckStore) Close() error {
	return s.db.Close()
}

// Create records a new document in pending state.
func (s *DuckStore) Create(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, stored_name, size, status, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.StoredName, doc.Size, string(models.StatusPending), doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// Get returns one document by ID, or models.ErrNotFound.
func (s *DuckStore) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id))
}

// GetByStoredName returns the document owning a stored filename.
func (s *DuckStore) GetByStoredName(ctx context.Context, storedName string) (*models.Document, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectCols+` WHERE stored_name = ?`, storedName))
}

// List returns the most recently uploaded documents, newest first.
func (s *DuckStore) List(ctx context.Context, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectCols+` ORDER BY uploaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// MarkIndexed transitions a document from pending to indexed. Any other
// starting state is rejected: failed is terminal and tombstoned documents
// never become retrievable.
func (s *DuckStore) MarkIndexed(ctx context.Context, id string) error {
	return s.transition(ctx, `
		UPDATE documents SET status = ?, indexed_at = ?, error = NULL
		WHERE id = ? AND status = ?`,
		string(models.StatusIndexed), time.Now().UTC(), id, string(models.StatusPending))
}

// MarkFailed transitions a document from pending to failed, retaining the
// failure reason for inspection.
func (s *DuckStore) MarkFailed(ctx context.Context, id, reason string) error {
	return s.transition(ctx, `
		UPDATE documents SET status = ?, error = ?
		WHERE id = ? AND status = ?`,
		string(models.StatusFailed), reason, id, string(models.StatusPending))
}

// Tombstone marks a document deleted from any state. The pipeline checks
// tombstones before writing index entries, so deleting a document while
// its job is still queued or running is safe.
func (s *DuckStore) Tombstone(ctx context.Context, id string) error {
	return s.transition(ctx, `
		UPDATE documents SET status = ? WHERE id = ?`,
		string(models.StatusTombstoned), id)
}

// Indexed returns the IDs of all retrievable documents mapped to the time
// they finished indexing. The retriever uses the timestamps to break score
// ties by recency.
func (s *DuckStore) Indexed(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, indexed_at FROM documents WHERE status = ?`,
		string(models.StatusIndexed))
	if err != nil {
		return nil, fmt.Errorf("querying indexed documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var ts sql.NullTime
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, fmt.Errorf("scanning indexed document: %w", err)
		}
		out[id] = ts.Time
	}
	return out, rows.Err()
}

const selectCols = `
	SELECT id, name, stored_name, size, status, error, uploaded_at, indexed_at
	FROM documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DuckStore) scanOne(row *sql.Row) (*models.Document, error) {
	doc, err := scanDoc(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return doc, err
}

func scanDoc(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var status string
	var errMsg sql.NullString
	var indexedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.Name, &doc.StoredName, &doc.Size,
		&status, &errMsg, &doc.UploadedAt, &indexedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Status = models.DocumentStatus(status)
	doc.Error = errMsg.String
	if indexedAt.Valid {
		t := indexedAt.Time
		doc.IndexedAt = &t
	}
	return &doc, nil
}

func (s *DuckStore) transition(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no document in a state allowing this transition", models.ErrNotFound)
	}
	return nil
}
