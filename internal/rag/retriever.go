// Package rag answers questions from retrieved passages: a Retriever
// ranks context from the vector index and a Composer grounds a completion
// on it.
package rag

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pdfchat/backend/internal/embedding"
	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/vectorstore"
)

// IndexedLister reports which documents are retrievable and when each
// finished indexing.
type IndexedLister interface {
	Indexed(ctx context.Context) (map[string]time.Time, error)
}

// DefaultTopK is the number of passages retrieved per question.
const DefaultTopK = 2

// Retriever embeds a question and fetches its nearest passages. Only
// documents the tracker records as indexed are eligible, so passages from
// pending, failed or tombstoned documents never surface.
type Retriever struct {
	embedder embedding.Client
	index    vectorstore.Store
	tracker  IndexedLister
	topK     int
}

// NewRetriever wires a Retriever. topK 0 means DefaultTopK.
func NewRetriever(em embedding.Client, idx vectorstore.Store, tr IndexedLister, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: em, index: idx, tracker: tr, topK: topK}
}

// Retrieve returns the ranked context for a question. An index with no
// finished documents yields an empty result, which is a valid answerable
// state, not an error. Embedding or index faults are surfaced so the
// caller can report "could not answer" instead of a hallucinated reply.
func (r *Retriever) Retrieve(ctx context.Context, query string) (models.RetrievalResult, error) {
	indexed, err := r.tracker.Indexed(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing indexed documents: %w", err)
	}
	if len(indexed) == 0 {
		return models.RetrievalResult{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	ids := make([]string, 0, len(indexed))
	for id := range indexed {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic filter payload

	hits, err := r.index.Search(ctx, vec, r.topK, ids)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	// Descending score; ties go to the most recently indexed document so
	// repeated queries over an unchanged index return a stable order.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return indexed[hits[i].DocumentID].After(indexed[hits[j].DocumentID])
	})
	return models.RetrievalResult(hits), nil
}
