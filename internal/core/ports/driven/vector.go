package driven

import "context"

// VectorIndex provides vector storage and similarity search.
// The core treats indexing internals as the backend's responsibility.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, chunkID string) error

	// Search finds up to k nearest neighbours to the query vector,
	// excluding hits scoring below threshold. Results are ordered by
	// non-increasing similarity.
	Search(ctx context.Context, query []float32, k int, threshold float64) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
