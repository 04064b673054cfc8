package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/testutil"
)

func seedIndexed(t *testing.T, tracker *testutil.MockTracker, index *testutil.MockVectorStore,
	docID string, indexedAt time.Time, passages ...models.Passage) {
	t.Helper()
	tracker.Seed(&models.Document{
		ID:        docID,
		Status:    models.StatusIndexed,
		IndexedAt: &indexedAt,
	})
	for i := range passages {
		passages[i].DocumentID = docID
		passages[i].Vector = testutil.EmbedText(passages[i].Text)
	}
	require.NoError(t, index.Upsert(context.Background(), passages))
}

func TestRetrieve_EmptyIndexIsNotAnError(t *testing.T) {
	r := NewRetriever(testutil.NewMockEmbedder(), testutil.NewMockVectorStore(),
		testutil.NewMockTracker(), 2)

	result, err := r.Retrieve(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRetrieve_RanksByScoreDescending(t *testing.T) {
	tracker := testutil.NewMockTracker()
	index := testutil.NewMockVectorStore()
	now := time.Now().UTC()
	seedIndexed(t, tracker, index, "doc-1", now,
		models.Passage{Page: 1, Seq: 0, Text: "cats purr and chase mice"},
		models.Passage{Page: 2, Seq: 0, Text: "dogs bark at strangers"},
		models.Passage{Page: 3, Seq: 0, Text: "fish swim in cold water"},
		models.Passage{Page: 4, Seq: 0, Text: "birds sing in the morning"},
		models.Passage{Page: 5, Seq: 0, Text: "cats sleep most of the day"},
	)

	r := NewRetriever(testutil.NewMockEmbedder(), index, tracker, 2)
	result, err := r.Retrieve(context.Background(), "tell me about cats")
	require.NoError(t, err)
	require.Len(t, result, 2, "top-k caps the result")

	assert.Greater(t, result[0].Score, 0.0)
	assert.GreaterOrEqual(t, result[0].Score, result[1].Score)
	for _, p := range result {
		assert.Contains(t, p.Text, "cats", "both cat passages outrank the rest")
	}
}

func TestRetrieve_ExcludesUnfinishedDocuments(t *testing.T) {
	tracker := testutil.NewMockTracker()
	index := testutil.NewMockVectorStore()
	seedIndexed(t, tracker, index, "done", time.Now().UTC(),
		models.Passage{Page: 1, Text: "cats are wonderful"})

	// A document mid-ingestion may already have entries in the index; they
	// must stay invisible until it is recorded as indexed.
	tracker.Seed(&models.Document{ID: "inflight", Status: models.StatusPending})
	require.NoError(t, index.Upsert(context.Background(), []models.Passage{{
		DocumentID: "inflight", Page: 1,
		Text:   "cats cats cats cats",
		Vector: testutil.EmbedText("cats cats cats cats"),
	}}))

	r := NewRetriever(testutil.NewMockEmbedder(), index, tracker, 5)
	result, err := r.Retrieve(context.Background(), "cats")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "done", result[0].DocumentID)
}

func TestRetrieve_TieBreaksByIndexingRecency(t *testing.T) {
	tracker := testutil.NewMockTracker()
	index := testutil.NewMockVectorStore()
	now := time.Now().UTC()
	// Identical text in both documents produces identical scores.
	seedIndexed(t, tracker, index, "older", now.Add(-time.Hour),
		models.Passage{Page: 1, Text: "cats purr"})
	seedIndexed(t, tracker, index, "newer", now,
		models.Passage{Page: 1, Text: "cats purr"})

	r := NewRetriever(testutil.NewMockEmbedder(), index, tracker, 2)
	result, err := r.Retrieve(context.Background(), "cats purr")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, result[0].Score, result[1].Score)
	assert.Equal(t, "newer", result[0].DocumentID)
}

func TestRetrieve_EmbeddingFaultSurfaces(t *testing.T) {
	tracker := testutil.NewMockTracker()
	index := testutil.NewMockVectorStore()
	seedIndexed(t, tracker, index, "doc-1", time.Now().UTC(),
		models.Passage{Page: 1, Text: "content"})

	embedder := testutil.NewMockEmbedder()
	embedder.Err = errors.New("provider down")

	r := NewRetriever(embedder, index, tracker, 2)
	_, err := r.Retrieve(context.Background(), "question")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmbedding)
}

func TestRetrieve_IndexFaultSurfaces(t *testing.T) {
	tracker := testutil.NewMockTracker()
	index := testutil.NewMockVectorStore()
	seedIndexed(t, tracker, index, "doc-1", time.Now().UTC(),
		models.Passage{Page: 1, Text: "content"})
	index.SearchErr = errors.New("qdrant unreachable")

	r := NewRetriever(testutil.NewMockEmbedder(), index, tracker, 2)
	_, err := r.Retrieve(context.Background(), "question")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrIndex)
}

func TestNewRetriever_DefaultTopK(t *testing.T) {
	r := NewRetriever(testutil.NewMockEmbedder(), testutil.NewMockVectorStore(),
		testutil.NewMockTracker(), 0)
	assert.Equal(t, DefaultTopK, r.topK)
}
