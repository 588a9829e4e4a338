package knowledge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/deskmate-ai/deskmate/internal/log"
	"github.com/deskmate-ai/deskmate/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	g := genkit.Init(context.Background())
	embed := NewEmbeddingFunc(testutil.DefineDeterministicEmbedder(g))
	return NewMemory("pdf_rag_collection", embed, log.NewNop())
}

func TestRequireBeforeBuild(t *testing.T) {
	s := newTestStore(t)

	if err := s.Require(); !errors.Is(err, ErrNoCollection) {
		t.Errorf("Require() = %v, want ErrNoCollection", err)
	}
	if _, err := s.Query(context.Background(), "anything", 3); !errors.Is(err, ErrNoCollection) {
		t.Errorf("Query on missing collection = %v, want ErrNoCollection", err)
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	results, err := s.Query(ctx, "wound healing formulation", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results from empty collection, got %d", len(results))
	}
}

func TestSelfRetrieval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	docs := []Document{
		{ID: "chunk_0", Content: "the quick brown fox jumps over the lazy dog", Metadata: map[string]string{"chunk_num": "0"}},
		{ID: "chunk_1", Content: "wound healing formulations use topical gel bases", Metadata: map[string]string{"chunk_num": "1"}},
		{ID: "chunk_2", Content: "sqlite is a small embedded relational database", Metadata: map[string]string{"chunk_num": "2"}},
	}
	if err := s.Add(ctx, docs); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A chunk queried by its own content must come back first with maximal
	// similarity among the results.
	results, err := s.Query(ctx, "wound healing formulations use topical gel bases", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Document.ID != "chunk_1" {
		t.Errorf("nearest result = %q, want chunk_1", results[0].Document.ID)
	}
	for _, r := range results[1:] {
		if r.Similarity > results[0].Similarity {
			t.Errorf("result %q similarity %f exceeds self-match %f",
				r.Document.ID, r.Similarity, results[0].Similarity)
		}
	}
}

func TestQueryClampsTopK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := s.Add(ctx, []Document{{ID: "chunk_0", Content: "only one chunk here"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// topK larger than the collection must not error.
	results, err := s.Query(ctx, "one chunk", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}

func TestRebuildReplacesCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for run := 0; run < 2; run++ {
		if err := s.Rebuild(ctx); err != nil {
			t.Fatalf("Rebuild run %d: %v", run, err)
		}
		docs := make([]Document, 5)
		for i := range docs {
			docs[i] = Document{ID: fmt.Sprintf("chunk_%d", i), Content: fmt.Sprintf("chunk number %d content", i)}
		}
		if err := s.Add(ctx, docs); err != nil {
			t.Fatalf("Add run %d: %v", run, err)
		}
		if got := s.Count(); got != 5 {
			t.Errorf("run %d: count = %d, want 5 (rebuild must not accumulate)", run, got)
		}
	}
}
