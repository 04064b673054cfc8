package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdfchat/backend/internal/models"
)

// Composer builds a grounding prompt from retrieved passages and asks the
// completion service for an answer constrained to that context.
type Composer struct {
	completer Completer
}

// NewComposer wires a Composer.
func NewComposer(c Completer) *Composer {
	return &Composer{completer: c}
}

// Compose answers a question from the retrieved context. With an empty
// result, the model is instructed to state it lacks information from the
// documents rather than fabricate an answer with citations.
func (c *Composer) Compose(ctx context.Context, question string, result models.RetrievalResult) (string, error) {
	return c.completer.Complete(ctx, groundingPrompt(result), question)
}

// groundingPrompt serializes the passages with document and page markers
// so the model's answer can attribute its sources.
func groundingPrompt(result models.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant who answers the user's question using only the context passages below, retrieved from their uploaded PDF documents.\n")
	b.WriteString("Cite the page number of each passage you draw on, e.g. (page 3).\n")
	b.WriteString("If the context does not contain the answer, say that the documents do not provide enough information. Never invent content or citations.\n")

	if len(result) == 0 {
		b.WriteString("\nNo context passages were retrieved. Tell the user you do not have enough information from their documents to answer this question.\n")
		return b.String()
	}

	b.WriteString("\nContext:\n")
	for i, p := range result {
		fmt.Fprintf(&b, "[%d] document %s, page %d:\n%s\n\n", i+1, p.DocumentID, p.Page, p.Text)
	}
	return b.String()
}
