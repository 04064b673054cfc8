package rag

import (
	"context"

	"github.com/pdfchat/backend/internal/models"
)

// Service is the query-side entry point: one call runs retrieval then
// composition for a single question. Requests share no mutable state, so
// concurrent questions are independent.
type Service struct {
	retriever *Retriever
	composer  *Composer
}

// NewService wires the query path.
func NewService(r *Retriever, c *Composer) *Service {
	return &Service{retriever: r, composer: c}
}

// Ask answers one question, returning the answer together with the
// passages it was grounded on so the caller can render citations.
func (s *Service) Ask(ctx context.Context, question string) (*models.ChatExchange, error) {
	result, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	answer, err := s.composer.Compose(ctx, question, result)
	if err != nil {
		return nil, err
	}
	return &models.ChatExchange{
		Question: question,
		Answer:   answer,
		Sources:  result,
	}, nil
}
