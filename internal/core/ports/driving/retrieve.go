package driving

import (
	"context"

	"github.com/campus-labs/lectern/internal/core/domain"
)

// RetrieveOptions configures one retrieval call. Zero values fall back
// to configured defaults.
type RetrieveOptions struct {
	// TopK is the maximum number of ranked matches returned.
	TopK int

	// SimilarityThreshold excludes matches scoring below it.
	SimilarityThreshold float64

	// Provider selects the embedding backend by name. It must match
	// the provider the target corpus was ingested with.
	Provider domain.EmbeddingProvider
}

// RetrievalService supplies ranked grounding snippets for a query.
type RetrievalService interface {
	// Retrieve embeds the query and returns the best-matching chunks.
	// A hard similarity-backend failure yields an empty Retrieval
	// annotated with the failure, not an error return, so the calling
	// answer-generation path can proceed ungrounded.
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) (*domain.Retrieval, error)
}
