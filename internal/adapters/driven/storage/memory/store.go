// Package memory provides in-memory storage adapters. They serve as
// test doubles and as a zero-dependency backend for local experiments.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements both storage interfaces.
var (
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.VectorIndex   = (*Store)(nil)
)

// Store is an in-memory implementation of driven.DocumentStore and
// driven.VectorIndex. Similarity search is brute-force cosine over all
// stored vectors.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk // by chunk ID
	vectors   map[string][]float32    // by chunk ID
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
		vectors:   make(map[string][]float32),
	}
}

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunk stores one chunk record and returns its identifier.
func (s *Store) SaveChunk(_ context.Context, chunk domain.Chunk) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	s.chunks[chunk.ID] = chunk
	if chunk.Embedding != nil {
		s.vectors[chunk.ID] = chunk.Embedding
	}
	return chunk.ID, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document in index order.
func (s *Store) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.Chunk //nolint:prealloc // size unknown
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

// ListDocuments returns all stored documents.
func (s *Store) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// DeleteDocument removes a document and cascades to its chunks and vectors.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, id)
	for chunkID, chunk := range s.chunks {
		if chunk.DocumentID == id {
			delete(s.chunks, chunkID)
			delete(s.vectors, chunkID)
		}
	}
	return nil
}

// Add inserts a vector for the given chunk ID.
func (s *Store) Add(_ context.Context, chunkID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[chunkID] = embedding
	return nil
}

// Delete removes a vector from the index.
func (s *Store) Delete(_ context.Context, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vectors, chunkID)
	return nil
}

// Search finds up to k nearest neighbours by cosine similarity,
// excluding hits below threshold.
func (s *Store) Search(_ context.Context, query []float32, k int, threshold float64) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrStorage)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.VectorHit //nolint:prealloc // filtered by threshold
	for chunkID, vec := range s.vectors {
		if len(vec) != len(query) {
			return nil, fmt.Errorf("%w: dimension mismatch: query %d, stored %d",
				domain.ErrStorage, len(query), len(vec))
		}
		score := cosineSimilarity(query, vec)
		if score < threshold {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Similarity: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two
// equal-length vectors, clamped to [0,1] for unit-normalised inputs.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
