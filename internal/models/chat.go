package models

// ChatExchange is one question/answer pair plus the retrieval context the
// answer was grounded on. The core never persists it; keeping a transcript
// is the client's concern.
type ChatExchange struct {
	Question string          `json:"question"`
	Answer   string          `json:"message"`
	Sources  RetrievalResult `json:"docs"`
}
