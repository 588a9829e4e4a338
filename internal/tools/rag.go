// Package tools implements the two question-answering capabilities exposed
// over MCP: document retrieval and natural-language SQL.
//
// Both tools fold every failure into a plain-text answer rather than an
// error. The tool boundary is where recovery happens: the model on the
// other end reads the message and decides what to do next, so a readable
// string beats a transport-level fault.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/knowledge"
)

// noContextMessage is returned verbatim when retrieval finds nothing.
const noContextMessage = "No relevant information was found in the document for that query."

// emptyContentMessage covers hits whose stored chunks carry no text.
const emptyContentMessage = "Found potential matches in the document, but could not retrieve content."

// contextSeparator joins retrieved chunks in the answer.
const contextSeparator = "\n---\n"

// RAGTool answers questions by retrieving the nearest document chunks.
type RAGTool struct {
	store  *knowledge.Store
	topK   int
	logger *slog.Logger
}

// NewRAGTool creates a retrieval tool over store returning up to topK chunks.
func NewRAGTool(store *knowledge.Store, topK int, logger *slog.Logger) *RAGTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGTool{store: store, topK: topK, logger: logger}
}

// Answer retrieves context for the query. Failures and empty retrievals
// both come back as text.
func (t *RAGTool) Answer(ctx context.Context, query string) string {
	answer, err := t.retrieve(ctx, query)
	if err != nil {
		t.logger.Error("retrieval failed", "error", err)
		return fmt.Sprintf("Error: could not search the document: %v", err)
	}
	return answer
}

func (t *RAGTool) retrieve(ctx context.Context, query string) (string, error) {
	results, err := t.store.Query(ctx, query, t.topK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return noContextMessage, nil
	}

	chunks := make([]string, 0, len(results))
	for _, r := range results {
		if r.Document.Content != "" {
			chunks = append(chunks, r.Document.Content)
		}
	}
	if len(chunks) == 0 {
		return emptyContentMessage, nil
	}
	t.logger.Debug("retrieved context", "chunks", len(chunks), "query", query)

	return "Retrieved context from PDF: " + strings.Join(chunks, contextSeparator), nil
}
