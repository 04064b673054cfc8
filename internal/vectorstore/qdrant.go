// Package vectorstore stores passage embeddings and answers
// nearest-neighbor queries. The Qdrant implementation is a minimal REST
// client assuming cosine distance.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pdfchat/backend/internal/models"
)

// Store persists passage vectors and supports similarity search.
type Store interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, passages []models.Passage) error
	// Search returns up to k scored passages nearest to vector, restricted
	// to the given document IDs. An empty allow list short-circuits to an
	// empty result without touching the index.
	Search(ctx context.Context, vector []float32, k int, allowedDocIDs []string) ([]models.ScoredPassage, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Namespace for deterministic point IDs: one point per (document, page,
// chunk), so re-running an ingestion overwrites instead of duplicating.
var pointNamespace = uuid.MustParse("4f1c2a9e-83d4-4c5b-9f6a-2f1f0d8f7b31")

// Qdrant is a REST client to a Qdrant collection.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// Config contains connection details for a Qdrant vector store.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewQdrant creates the client. Collection creation is deferred to
// EnsureCollection since the vector dimension is not known until the
// embedding client is configured.
func NewQdrant(cfg Config) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection if missing. Qdrant answers 200
// for an existing collection with the same schema.
func (q *Qdrant) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", models.ErrIndex, dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return q.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", q.url, q.collection), body, nil)
}

// Upsert writes one point per passage and waits for the write to be
// applied, so a document is only marked indexed once its entries are
// durable.
func (q *Qdrant) Upsert(ctx context.Context, passages []models.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	points := make([]map[string]any, len(passages))
	for i, p := range passages {
		points[i] = map[string]any{
			"id":     pointID(p),
			"vector": p.Vector,
			"payload": map[string]any{
				"document_id": p.DocumentID,
				"page":        p.Page,
				"seq":         p.Seq,
				"text":        p.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection)
	return q.do(ctx, http.MethodPut, url, body, nil)
}

// Search runs a nearest-neighbor query filtered to the allowed documents.
func (q *Qdrant) Search(ctx context.Context, vector []float32, k int, allowedDocIDs []string) ([]models.ScoredPassage, error) {
	if len(allowedDocIDs) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 2
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"any": allowedDocIDs}},
			},
		},
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection)
	if err := q.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}

	results := make([]models.ScoredPassage, 0, len(resp.Result))
	for _, r := range resp.Result {
		sp := models.ScoredPassage{Score: r.Score}
		if v, ok := r.Payload["document_id"].(string); ok {
			sp.DocumentID = v
		}
		if v, ok := r.Payload["page"].(float64); ok {
			sp.Page = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			sp.Text = v
		}
		results = append(results, sp)
	}
	return results, nil
}

// DeleteByDocument removes every point belonging to a document.
func (q *Qdrant) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", q.url, q.collection)
	return q.do(ctx, http.MethodPost, url, body, nil)
}

// pointID derives a stable UUID for a passage position. Qdrant only
// accepts UUID or integer point IDs.
func pointID(p models.Passage) string {
	key := fmt.Sprintf("%s:%d:%d", p.DocumentID, p.Page, p.Seq)
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

func (q *Qdrant) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", models.ErrIndex, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndex, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndex, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: %s", models.ErrIndex, method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", models.ErrIndex, err)
		}
	}
	return nil
}
