package driven

import (
	"context"

	"github.com/campus-labs/lectern/internal/core/domain"
)

// DocumentStore persists documents and chunk records.
type DocumentStore interface {
	// SaveDocument stores or updates a document's metadata and text.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunk stores one (chunk, vector, metadata) record and
	// returns the record identifier. Chunks are written individually
	// so a single failed chunk never aborts the rest of an ingestion.
	SaveChunk(ctx context.Context, chunk domain.Chunk) (string, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document in index order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and cascades to its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
