package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// embeddingDims is the vector size produced by the deterministic embedder.
const embeddingDims = 64

// DefineDeterministicEmbedder registers a hashed bag-of-words embedder
// with Genkit. Identical text always maps to the identical vector, and
// texts sharing words land near each other, which is enough structure
// for self-retrieval and ranking tests without a real model.
func DefineDeterministicEmbedder(g *genkit.Genkit) ai.Embedder {
	return genkit.DefineEmbedder(g, "mock/deterministic-embedder", &ai.EmbedderOptions{
		Label:      "Deterministic Test Embedder",
		Dimensions: embeddingDims,
	}, embed)
}

func embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text strings.Builder
		for _, part := range doc.Content {
			text.WriteString(part.Text)
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: embedText(text.String()),
		})
	}
	return resp, nil
}

// embedText hashes each lowercase word into a fixed-size vector and
// L2-normalizes the result.
func embedText(text string) []float32 {
	vec := make([]float32, embeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%embeddingDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1 // degenerate input still yields a unit vector
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
