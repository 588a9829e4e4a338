package knowledge

// Document is a chunk of source text stored for retrieval.
// Metadata must be map[string]string to comply with chromem-go requirements.
type Document struct {
	ID       string            // Unique identifier (e.g. "chunk_12")
	Content  string            // Chunk text
	Metadata map[string]string // Source metadata (source path, chunk number)
}

// Result is a single search result with similarity score.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity score (0-1)
}
