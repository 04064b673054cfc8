package models

// Passage is one chunk of extracted text, the atomic unit stored in and
// retrieved from the vector index. Its embedding is always computed from
// exactly the text it carries.
type Passage struct {
	DocumentID string
	Page       int // 1-based page number in the source PDF
	Seq        int // chunk sequence index within the page
	Text       string
	Vector     []float32
}

// ScoredPassage is a retrieved passage with its similarity score.
type ScoredPassage struct {
	Text       string  `json:"text"`
	Page       int     `json:"page"`
	DocumentID string  `json:"documentId"`
	Score      float64 `json:"score"`
}

// RetrievalResult is the ranked context for one question, ordered by
// descending score. It is ephemeral and never persisted. An empty result
// is a valid state, not an error.
type RetrievalResult []ScoredPassage
