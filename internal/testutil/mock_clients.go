// mock_clients.go - Deterministic collaborator doubles for testing
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/pdfchat/backend/internal/models"
)

// MockEmbedder is a deterministic bag-of-words embedder. Texts sharing
// words get similar vectors, so relevance ordering in tests behaves like
// a real embedding space without any provider.
type MockEmbedder struct {
	mu    sync.Mutex
	calls int

	Model string
	// Err fails every call when set.
	Err error
	// FailFirst fails the first N calls, then succeeds. Exercises the
	// pipeline's bounded retry.
	FailFirst int
}

// NewMockEmbedder creates a deterministic embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Model: "mock-embedder"}
}

const mockDim = 512

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, m.Err)
	}
	if n <= m.FailFirst {
		return nil, fmt.Errorf("%w: transient fault %d", models.ErrEmbedding, n)
	}
	return EmbedText(text), nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *MockEmbedder) ModelName() string { return m.Model }

// Calls returns how many Embed calls were made.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// EmbedText returns the deterministic vector for a text.
func EmbedText(text string) []float32 {
	vec := make([]float32, mockDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?:;()\"'")
		if word == "" {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(word))
		vec[h.Sum64()%mockDim]++
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// MockVectorStore is an in-memory vectorstore.Store with real cosine
// ranking and document filtering.
type MockVectorStore struct {
	mu      sync.RWMutex
	entries []models.Passage

	UpsertErr error
	SearchErr error
	Deleted   []string
}

// NewMockVectorStore creates an empty store.
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{}
}

func (m *MockVectorStore) EnsureCollection(ctx context.Context, dimension int) error {
	return nil
}

func (m *MockVectorStore) Upsert(ctx context.Context, passages []models.Passage) error {
	if m.UpsertErr != nil {
		return fmt.Errorf("%w: %v", models.ErrIndex, m.UpsertErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, passages...)
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, vector []float32, k int, allowedDocIDs []string) ([]models.ScoredPassage, error) {
	if m.SearchErr != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIndex, m.SearchErr)
	}
	if len(allowedDocIDs) == 0 {
		return nil, nil
	}
	allowed := make(map[string]struct{}, len(allowedDocIDs))
	for _, id := range allowedDocIDs {
		allowed[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var hits []models.ScoredPassage
	for _, e := range m.entries {
		if _, ok := allowed[e.DocumentID]; !ok {
			continue
		}
		hits = append(hits, models.ScoredPassage{
			Text:       e.Text,
			Page:       e.Page,
			DocumentID: e.DocumentID,
			Score:      cosine(vector, e.Vector),
		})
	}
	// Highest score first; stable so seeded order breaks exact ties.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Score > hits[j-1].Score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MockVectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, documentID)
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// Entries returns a copy of the stored passages.
func (m *MockVectorStore) Entries() []models.Passage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Passage, len(m.entries))
	copy(out, m.entries)
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MockCompleter is a rag.Completer double recording the prompts it saw.
type MockCompleter struct {
	mu         sync.Mutex
	SystemSeen []string
	UserSeen   []string

	Answer string
	Err    error
}

// NewMockCompleter answers every call with answer.
func NewMockCompleter(answer string) *MockCompleter {
	return &MockCompleter{Answer: answer}
}

func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCompletion, m.Err)
	}
	m.SystemSeen = append(m.SystemSeen, system)
	m.UserSeen = append(m.UserSeen, user)
	return m.Answer, nil
}

// MockEnqueuer is a queue.Enqueuer double recording enqueued jobs.
type MockEnqueuer struct {
	mu   sync.Mutex
	Jobs []models.IngestionJob

	Err error
}

// NewMockEnqueuer creates an enqueuer that accepts every job.
func NewMockEnqueuer() *MockEnqueuer {
	return &MockEnqueuer{}
}

func (m *MockEnqueuer) EnqueueIngestion(ctx context.Context, job models.IngestionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Jobs = append(m.Jobs, job)
	return nil
}
