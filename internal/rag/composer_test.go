package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfchat/backend/internal/models"
	"github.com/pdfchat/backend/internal/testutil"
)

func TestCompose_GroundsOnRetrievedPassages(t *testing.T) {
	completer := testutil.NewMockCompleter("Cats purr (page 3).")
	composer := NewComposer(completer)

	result := models.RetrievalResult{
		{Text: "cats purr when content", Page: 3, DocumentID: "doc-1", Score: 0.9},
		{Text: "cats sleep a lot", Page: 7, DocumentID: "doc-2", Score: 0.5},
	}
	answer, err := composer.Compose(context.Background(), "Why do cats purr?", result)
	require.NoError(t, err)
	assert.Equal(t, "Cats purr (page 3).", answer)

	require.Len(t, completer.UserSeen, 1)
	assert.Equal(t, "Why do cats purr?", completer.UserSeen[0],
		"the question reaches the model verbatim")

	require.Len(t, completer.SystemSeen, 1)
	system := completer.SystemSeen[0]
	assert.Contains(t, system, "cats purr when content")
	assert.Contains(t, system, "document doc-1, page 3")
	assert.Contains(t, system, "document doc-2, page 7")
	assert.Contains(t, system, "Never invent content or citations")
}

func TestCompose_EmptyContextSignalsInsufficiency(t *testing.T) {
	completer := testutil.NewMockCompleter("I do not have enough information.")
	composer := NewComposer(completer)

	answer, err := composer.Compose(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	require.Len(t, completer.SystemSeen, 1)
	assert.Contains(t, completer.SystemSeen[0],
		"you do not have enough information",
		"with no context the model must be told to say so, not improvise")
	assert.NotContains(t, completer.SystemSeen[0], "Context:")
}

func TestCompose_PassagesKeepRetrievalOrder(t *testing.T) {
	completer := testutil.NewMockCompleter("ok")
	composer := NewComposer(completer)

	result := models.RetrievalResult{
		{Text: "first passage", Page: 1, DocumentID: "a", Score: 0.9},
		{Text: "second passage", Page: 2, DocumentID: "b", Score: 0.1},
	}
	_, err := composer.Compose(context.Background(), "q", result)
	require.NoError(t, err)

	system := completer.SystemSeen[0]
	assert.Less(t,
		strings.Index(system, "first passage"),
		strings.Index(system, "second passage"))
	assert.Contains(t, system, "[1] document a")
	assert.Contains(t, system, "[2] document b")
}

func TestCompose_CompletionFaultSurfaces(t *testing.T) {
	completer := testutil.NewMockCompleter("")
	completer.Err = errors.New("rate limited")
	composer := NewComposer(completer)

	_, err := composer.Compose(context.Background(), "q", models.RetrievalResult{
		{Text: "passage", Page: 1, DocumentID: "a", Score: 0.9},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCompletion)
}
