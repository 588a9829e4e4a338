// Package knowledge manages the persistent vector store of document chunks.
//
// The store is a chromem-go database with a single named collection.
// Embeddings are generated through a Genkit embedder bridged via
// NewEmbeddingFunc, so index-time and query-time vectors always come from
// the same model.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
)

// ErrNoCollection indicates the named collection does not exist yet.
// For the RAG tool server this is a startup error: the indexer must run
// before anything can be retrieved.
var ErrNoCollection = errors.New("vector collection not found")

// Store manages document chunks in a chromem-go collection.
//
// Safe for concurrent readers; Rebuild must not race with queries, which
// holds here because indexing is a one-shot offline process.
type Store struct {
	db     *chromem.DB
	col    *chromem.Collection
	name   string
	embed  chromem.EmbeddingFunc
	logger *slog.Logger
}

// Open opens (or creates) a persistent vector database at path and looks up
// the named collection. A missing collection is not an error at this point;
// callers that require one use Require().
func Open(path, collection string, embed chromem.EmbeddingFunc, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector database at %q: %w", path, err)
	}

	return &Store{
		db:     db,
		col:    db.GetCollection(collection, embed),
		name:   collection,
		embed:  embed,
		logger: logger,
	}, nil
}

// NewMemory creates an in-memory store. Tests only.
func NewMemory(collection string, embed chromem.EmbeddingFunc, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     chromem.NewDB(),
		name:   collection,
		embed:  embed,
		logger: logger,
	}
}

// Require returns ErrNoCollection if the collection has not been built yet.
func (s *Store) Require() error {
	if s.col == nil {
		return fmt.Errorf("%w: %q", ErrNoCollection, s.name)
	}
	return nil
}

// Rebuild deletes any existing collection and creates a fresh empty one.
// Full rebuild semantics: there is no incremental update path.
func (s *Store) Rebuild(ctx context.Context) error {
	if s.col != nil {
		if err := s.db.DeleteCollection(s.name); err != nil {
			return fmt.Errorf("deleting collection %q: %w", s.name, err)
		}
		s.logger.Info("deleted existing collection for fresh build", "collection", s.name)
		s.col = nil
	}

	col, err := s.db.CreateCollection(s.name, nil, s.embed)
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.name, err)
	}
	s.col = col
	return nil
}

// Add embeds and stores the given documents.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	if err := s.Require(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	cdocs := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		cdocs = append(cdocs, chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: d.Metadata,
		})
	}

	if err := s.col.AddDocuments(ctx, cdocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding %d documents: %w", len(docs), err)
	}

	s.logger.Debug("added documents", "count", len(docs), "collection", s.name)
	return nil
}

// Query embeds the query text and returns up to topK nearest chunks by
// cosine similarity. An empty collection yields no results, not an error.
func (s *Store) Query(ctx context.Context, query string, topK int) ([]Result, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}

	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection size.
	if topK > count {
		topK = count
	}

	hits, err := s.col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			Document: Document{
				ID:       h.ID,
				Content:  h.Content,
				Metadata: h.Metadata,
			},
			Similarity: h.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of stored chunks, zero if no collection exists.
func (s *Store) Count() int {
	if s.col == nil {
		return 0
	}
	return s.col.Count()
}
