package models

import "errors"

// Sentinel errors for the ingestion and query pipeline. Callers classify
// failures with errors.Is; wrapped messages carry the provider detail.
var (
	// ErrExtraction marks malformed, encrypted or otherwise unreadable PDF
	// input. Permanent: the pipeline must not retry it.
	ErrExtraction = errors.New("pdf extraction failed")

	// ErrChunking marks an invalid chunker configuration. Permanent.
	ErrChunking = errors.New("invalid chunking configuration")

	// ErrEmbedding marks a transient embedding provider fault. Retried with
	// bounded backoff inside the pipeline.
	ErrEmbedding = errors.New("embedding request failed")

	// ErrIndex marks a transient vector index fault. Retried like ErrEmbedding.
	ErrIndex = errors.New("vector index request failed")

	// ErrCompletion marks a completion provider fault while composing an
	// answer. Surfaced to the caller, never retried automatically.
	ErrCompletion = errors.New("completion request failed")

	// ErrNotFound marks a missing stored file or unknown document.
	ErrNotFound = errors.New("not found")
)
