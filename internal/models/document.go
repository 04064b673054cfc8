package models

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

const (
	// StatusPending means the document is uploaded but not yet indexed.
	StatusPending DocumentStatus = "pending"
	// StatusIndexed means every passage of the document is searchable.
	StatusIndexed DocumentStatus = "indexed"
	// StatusFailed is terminal; re-ingestion requires a fresh upload.
	StatusFailed DocumentStatus = "failed"
	// StatusTombstoned means the document was deleted, possibly while an
	// ingestion job for it was still queued or running.
	StatusTombstoned DocumentStatus = "tombstoned"
)

// Document represents one uploaded PDF and its ingestion state.
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	StoredName string         `json:"storedFilename"`
	Size       int64          `json:"size"`
	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	UploadedAt time.Time      `json:"uploadedAt"`
	IndexedAt  *time.Time     `json:"indexedAt,omitempty"`
}
