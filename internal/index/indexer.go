// Package index builds the vector collection from a source PDF.
//
// Indexing is a one-shot offline pipeline: extract text, split into
// overlapping chunks, wipe the collection, embed and store everything.
// Any failure aborts the run; there is no partial-progress recovery,
// rerunning the indexer is the fix.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/deskmate-ai/deskmate/internal/knowledge"
)

// Indexer drives the extract-chunk-embed-store pipeline.
type Indexer struct {
	store   *knowledge.Store
	chunker *Chunker
	logger  *slog.Logger
}

// New creates an indexer writing to store, chunking with the given
// window size and overlap in runes.
func New(store *knowledge.Store, chunkSize, chunkOverlap int, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:   store,
		chunker: NewChunker(chunkSize, chunkOverlap),
		logger:  logger,
	}
}

// IndexPDF rebuilds the collection from the PDF at path and returns the
// number of chunks stored. The existing collection is deleted first, so a
// successful run always reflects exactly one document.
func (ix *Indexer) IndexPDF(ctx context.Context, path string) (int, error) {
	text, err := ExtractPDF(path)
	if err != nil {
		return 0, err
	}
	ix.logger.Info("extracted document text", "path", path, "runes", len([]rune(text)))

	return ix.indexText(ctx, path, text)
}

// indexText chunks the extracted text and replaces the collection contents.
func (ix *Indexer) indexText(ctx context.Context, path, text string) (int, error) {
	chunks := ix.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %q produced no chunks", path)
	}

	if err := ix.store.Rebuild(ctx); err != nil {
		return 0, fmt.Errorf("rebuilding collection: %w", err)
	}

	source := filepath.Base(path)
	docs := make([]knowledge.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, knowledge.Document{
			ID:      fmt.Sprintf("chunk_%d", i),
			Content: chunk,
			Metadata: map[string]string{
				"source":    source,
				"chunk_num": strconv.Itoa(i),
			},
		})
	}

	if err := ix.store.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}

	ix.logger.Info("indexed document", "path", path, "chunks", len(docs))
	return len(docs), nil
}
