// Package pipeline converts one ingestion job into index entries, or marks
// the document permanently failed. Partial indexing is never exposed: the
// retriever only serves documents the tracker records as indexed, so
// entries written before an abort stay invisible.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdfchat/backend/internal/chunker"
	"github.com/pdfchat/backend/internal/embedding"
	"github.com/pdfchat/backend/internal/extractor"
	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/storage"
	"github.com/pdfchat/backend/internal/vectorstore"
)

// Tracker is the slice of the document store the pipeline needs.
type Tracker interface {
	Get(ctx context.Context, id string) (*models.Document, error)
	MarkIndexed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// Extractor produces page text from a stored PDF.
type Extractor interface {
	Extract(src extractor.Source, size int64) ([]extractor.Page, error)
}

// DefaultEmbedConcurrency bounds parallel embedding calls per document.
const DefaultEmbedConcurrency = 4

// DefaultMaxAttempts bounds retries of transient embedding/index faults.
const DefaultMaxAttempts = 3

// Pipeline orchestrates extract, chunk, embed and index for one document.
type Pipeline struct {
	store    storage.Store
	tracker  Tracker
	extract  Extractor
	splitter *chunker.Splitter
	embedder embedding.Client
	index    vectorstore.Store
	log      *slog.Logger

	embedConcurrency int
	maxAttempts      int
}

// New wires a Pipeline. splitter must already be validated.
func New(store storage.Store, tr Tracker, ex Extractor, sp *chunker.Splitter,
	em embedding.Client, idx vectorstore.Store, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:            store,
		tracker:          tr,
		extract:          ex,
		splitter:         sp,
		embedder:         em,
		index:            idx,
		log:              log,
		embedConcurrency: DefaultEmbedConcurrency,
		maxAttempts:      DefaultMaxAttempts,
	}
}

// Run processes one job end to end. Transient embedding and index faults
// are retried with bounded backoff; exhausting the budget, or any
// permanent fault, marks the document failed with the reason retained.
// The job itself is never replayed.
func (p *Pipeline) Run(ctx context.Context, job models.IngestionJob) error {
	log := p.log.With("document_id", job.DocumentID, "name", job.Name)

	doc, err := p.tracker.Get(ctx, job.DocumentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("ingestion job references unknown document, skipping")
			return nil
		}
		return fmt.Errorf("loading document: %w", err)
	}
	switch doc.Status {
	case models.StatusTombstoned:
		log.Info("document deleted before ingestion, skipping")
		return nil
	case models.StatusPending:
		// proceed
	default:
		// At-least-once delivery can hand us an already-settled document.
		log.Info("document already settled, skipping", "status", string(doc.Status))
		return nil
	}

	passages, err := p.collect(job)
	if err != nil {
		return p.fail(ctx, log, job.DocumentID, err)
	}
	if len(passages) == 0 {
		log.Info("document has no extractable text, indexing empty")
		return p.tracker.MarkIndexed(ctx, job.DocumentID)
	}

	if err := p.embedAll(ctx, passages); err != nil {
		return p.fail(ctx, log, job.DocumentID, err)
	}

	if err := p.writeIndex(ctx, job.DocumentID, passages); err != nil {
		return p.fail(ctx, log, job.DocumentID, err)
	}

	if err := p.tracker.MarkIndexed(ctx, job.DocumentID); err != nil {
		return fmt.Errorf("marking document indexed: %w", err)
	}
	log.Info("document indexed", "passages", len(passages))
	return nil
}

// collect extracts pages and chunks them into passages without vectors.
func (p *Pipeline) collect(job models.IngestionJob) ([]*models.Passage, error) {
	f, size, err := p.store.Open(job.StoredName)
	if err != nil {
		return nil, fmt.Errorf("opening stored file: %w", err)
	}
	defer f.Close()

	pages, err := p.extract.Extract(f, size)
	if err != nil {
		return nil, err
	}

	var passages []*models.Passage
	for _, page := range pages {
		for seq, text := range p.splitter.Split(page.Text) {
			passages = append(passages, &models.Passage{
				DocumentID: job.DocumentID,
				Page:       page.Number,
				Seq:        seq,
				Text:       text,
			})
		}
	}
	return passages, nil
}

// embedAll fills passage vectors with bounded concurrency. Chunks are
// independent, so calls run in parallel; the first exhausted retry budget
// cancels the rest.
func (p *Pipeline) embedAll(ctx context.Context, passages []*models.Passage) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.embedConcurrency)
	for _, passage := range passages {
		g.Go(func() error {
			return p.withRetry(ctx, "embed", func() error {
				vec, err := p.embedder.Embed(ctx, passage.Text)
				if err != nil {
					return err
				}
				passage.Vector = vec
				return nil
			})
		})
	}
	return g.Wait()
}

// writeIndex upserts all entries in one awaited batch.
func (p *Pipeline) writeIndex(ctx context.Context, docID string, passages []*models.Passage) error {
	// Deleting a document races with its ingestion; check the tombstone as
	// late as possible so entries for deleted documents are not written.
	doc, err := p.tracker.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("re-checking document: %w", err)
	}
	if doc.Status == models.StatusTombstoned {
		return fmt.Errorf("document tombstoned during ingestion")
	}

	entries := make([]models.Passage, len(passages))
	for i, passage := range passages {
		entries[i] = *passage
	}
	if err := p.withRetry(ctx, "ensure collection", func() error {
		return p.index.EnsureCollection(ctx, len(entries[0].Vector))
	}); err != nil {
		return err
	}
	return p.withRetry(ctx, "upsert", func() error {
		return p.index.Upsert(ctx, entries)
	})
}

// fail marks the document failed and surfaces the original error to the
// queue for logging. Documents in failed state are terminal; re-ingestion
// takes a fresh upload.
func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, docID string, cause error) error {
	log.Error("ingestion failed", "error", cause)
	if err := p.tracker.MarkFailed(ctx, docID, cause.Error()); err != nil {
		log.Error("recording ingestion failure", "error", err)
	}
	return cause
}

// withRetry runs fn up to maxAttempts times with exponential backoff.
// Permanent faults (extraction, chunking) and context cancellation stop
// immediately.
func (p *Pipeline) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
			p.log.Warn("retrying", "op", op, "attempt", attempt+1)
		}
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, models.ErrExtraction) || errors.Is(err, models.ErrChunking) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// retryDelay grows exponentially from 200ms, capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
