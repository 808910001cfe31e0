package driving

import (
	"context"

	"github.com/campus-labs/lectern/internal/core/domain"
)

// IngestOptions configures one ingestion call. Zero values fall back
// to configured defaults.
type IngestOptions struct {
	// MaxChunkChars bounds chunk content length. The final chunk of a
	// document, and single sentences longer than the bound, may exceed it.
	MaxChunkChars int

	// OverlapChars is the approximate character overlap carried from
	// one chunk into the next.
	OverlapChars int

	// Provider selects the embedding backend by name.
	Provider domain.EmbeddingProvider

	// Concurrency bounds parallel embedding calls.
	Concurrency int
}

// IngestionService drives chunking, embedding and persistence for one
// document. Per-chunk failures are reported, not propagated; only a
// failure to persist the document metadata itself aborts the call.
type IngestionService interface {
	// Ingest persists the document, then embeds and persists its
	// chunks. The report always carries Succeeded alongside
	// ChunkCount so partial grounding is detectable.
	Ingest(ctx context.Context, doc *domain.Document, opts IngestOptions) (*domain.IngestReport, error)
}

// DocumentService exposes read access to ingested materials.
type DocumentService interface {
	// List returns all ingested documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, id string) error
}
