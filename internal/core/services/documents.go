package services

import (
	"context"
	"fmt"

	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
	"github.com/campus-labs/lectern/internal/core/ports/driving"
	"github.com/campus-labs/lectern/internal/logger"
)

// Ensure Documents implements the interface.
var _ driving.DocumentService = (*Documents)(nil)

// Documents manages ingested course materials.
type Documents struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
}

// NewDocuments creates a document management service.
func NewDocuments(docStore driven.DocumentStore, vectorIndex driven.VectorIndex) *Documents {
	return &Documents{
		docStore:    docStore,
		vectorIndex: vectorIndex,
	}
}

// List returns all ingested documents.
func (s *Documents) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *Documents) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, id)
}

// Delete removes a document, its chunks and their vectors.
func (s *Documents) Delete(ctx context.Context, id string) error {
	// Collect chunk IDs before the cascade wipes them
	chunks, err := s.docStore.GetChunks(ctx, id)
	if err != nil {
		return fmt.Errorf("get chunks: %w", err)
	}

	if s.vectorIndex != nil {
		for _, chunk := range chunks {
			if err := s.vectorIndex.Delete(ctx, chunk.ID); err != nil {
				logger.Debug("Failed to delete vector %s: %v", chunk.ID, err)
			}
		}
	}

	if err := s.docStore.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
