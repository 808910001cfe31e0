package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
	"github.com/campus-labs/lectern/internal/core/ports/driving"
	"github.com/campus-labs/lectern/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever embeds a query and returns the best-matching chunks with
// enough context to build citations.
type Retriever struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	provider    domain.EmbeddingProvider
}

// NewRetriever creates a retrieval service bound to one embedding
// provider. Queries are only ever compared against chunks ingested
// with the same provider.
func NewRetriever(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	provider domain.EmbeddingProvider,
) *Retriever {
	return &Retriever{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		provider:    provider,
	}
}

// Retrieve embeds the query and searches the vector index. A hard
// backend failure degrades to an empty, annotated Retrieval rather
// than an error, so answer generation can proceed ungrounded.
func (s *Retriever) Retrieve(ctx context.Context, query string, opts driving.RetrieveOptions) (*domain.Retrieval, error) {
	// 1. Validate input
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = domain.DefaultSimilarityThreshold
	}

	// 2. Embed the query. Without a query vector there is nothing to
	// search with, so provider failures here are real errors.
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	logger.Section("Vector Search")
	logger.Debug("Query embedded: %d dimensions, topK=%d, threshold=%.2f",
		len(queryVec), topK, threshold)

	// 3. Search. The threshold is applied by the backend so only
	// qualifying hits cross the wire.
	hits, err := s.vectorIndex.Search(ctx, queryVec, topK, threshold)
	if err != nil {
		logger.Warn("Similarity backend failed, returning ungrounded: %v", err)
		return &domain.Retrieval{
			Err: fmt.Errorf("similarity search unavailable: %w", err),
		}, nil
	}

	// 4. Hydrate hits into self-contained results
	results := make([]domain.RetrievalResult, 0, len(hits))
	titles := make(map[string]string)

	for _, hit := range hits {
		chunk, err := s.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			// A stale index entry should not sink the whole result set.
			logger.Warn("Chunk %s not found, skipping hit: %v", hit.ChunkID, err)
			continue
		}

		// Scores are only meaningful within a single provider's
		// vector space. Refuse to mix rather than return garbage.
		if chunk.Metadata.Provider != "" && chunk.Metadata.Provider != s.provider.String() {
			return nil, fmt.Errorf("%w: corpus ingested with %q, query embedded with %q",
				domain.ErrProviderMismatch, chunk.Metadata.Provider, s.provider)
		}

		title, ok := titles[chunk.DocumentID]
		if !ok {
			doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
			if err != nil {
				logger.Warn("Document %s not found for chunk %s: %v", chunk.DocumentID, chunk.ID, err)
			} else {
				title = doc.Title
			}
			titles[chunk.DocumentID] = title
		}

		results = append(results, domain.RetrievalResult{
			Chunk:         *chunk,
			DocumentTitle: title,
			Score:         hit.Similarity,
		})
	}

	// 5. Order by score, ties broken by chunk position
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})
	if len(results) > topK {
		results = results[:topK]
	}

	logger.Debug("Retrieved %d results", len(results))
	return &domain.Retrieval{Results: results}, nil
}
