package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/campus-labs/lectern/internal/chunker"
	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
	"github.com/campus-labs/lectern/internal/core/ports/driving"
	"github.com/campus-labs/lectern/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestionService = (*Ingestor)(nil)

// embedAttempts bounds retries against a provider that reports
// transient unavailability.
const embedAttempts = 3

// embedBackoff is the base delay between retry attempts. The delay
// grows linearly with the attempt number.
const embedBackoff = 500 * time.Millisecond

// Ingestor coordinates chunking, embedding and persistence for one
// document. A failed chunk is recorded and skipped; the rest of the
// document still lands.
type Ingestor struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	provider    domain.EmbeddingProvider
	limiter     *rate.Limiter
}

// NewIngestor creates an ingestion orchestrator. The provider name is
// stamped onto every chunk so retrieval can refuse cross-provider
// comparisons later. ratePerSec paces embedding calls; zero or
// negative falls back to the default.
func NewIngestor(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	provider domain.EmbeddingProvider,
	ratePerSec float64,
) *Ingestor {
	if ratePerSec <= 0 {
		ratePerSec = domain.DefaultEmbedRatePerSec
	}
	return &Ingestor{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		provider:    provider,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Ingest persists the document, chunks its text, then embeds and
// persists each chunk. Only a failure to persist the document itself
// aborts the call; per-chunk failures are reported in the outcome
// list.
func (s *Ingestor) Ingest(ctx context.Context, doc *domain.Document, opts driving.IngestOptions) (*domain.IngestReport, error) {
	// 1. Validate input
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: document content is empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("%w: document title is empty", domain.ErrInvalidInput)
	}

	// 2. Persist document metadata first. Without the owning record
	// there is nothing to attach chunks to, so failure here aborts.
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestionAborted, err)
	}

	// 3. Build chunks. File metadata is copied onto every chunk,
	// stamped with the embedding provider in use.
	meta := doc.FileMetadata
	meta.Provider = s.provider.String()
	meta.CreatedAt = time.Now().UTC()

	// Zero-valued options mean "use the configured default", so only
	// set overrides the caller actually provided.
	var builderOpts []chunker.Option
	if opts.MaxChunkChars > 0 {
		builderOpts = append(builderOpts, chunker.WithMaxChars(opts.MaxChunkChars))
	}
	if opts.OverlapChars > 0 {
		builderOpts = append(builderOpts, chunker.WithOverlap(opts.OverlapChars))
	}
	builder := chunker.New(builderOpts...)
	chunks := builder.Build(doc.Content, doc.ID, meta)

	report := &domain.IngestReport{
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
		Outcomes:   make([]domain.ChunkOutcome, len(chunks)),
	}
	if len(chunks) == 0 {
		return report, nil
	}

	logger.Info("Ingesting %q: %d chunks", doc.Title, len(chunks))

	// 4. Embed and persist chunks concurrently. Each worker owns one
	// outcome slot, so no locking is needed around the report.
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = domain.DefaultIngestionConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range chunks {
		chunk := chunks[i]
		outcome := &report.Outcomes[i]
		outcome.Index = chunk.Index

		g.Go(func() error {
			outcome.ChunkID, outcome.Err = s.processChunk(gctx, chunk)
			// Chunk failures are recorded, never propagated, so one
			// bad chunk cannot cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	// 5. Tally what landed
	for i := range report.Outcomes {
		if report.Outcomes[i].Succeeded() {
			report.Succeeded++
		} else {
			logger.Warn("Chunk %d skipped: %v", report.Outcomes[i].Index, report.Outcomes[i].Err)
		}
	}

	if report.Partial() {
		logger.Info("Ingestion partial: %d/%d chunks persisted", report.Succeeded, report.ChunkCount)
	} else {
		logger.Info("Ingestion complete: %d chunks persisted", report.Succeeded)
	}

	// Cancellation stops dispatch; report what completed alongside it.
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// processChunk embeds one chunk and persists it, retrying transient
// provider failures with bounded backoff.
func (s *Ingestor) processChunk(ctx context.Context, chunk domain.Chunk) (string, error) {
	embedding, err := s.embedWithRetry(ctx, chunk.Content)
	if err != nil {
		return "", err
	}
	chunk.Embedding = embedding

	chunkID, err := s.docStore.SaveChunk(ctx, chunk)
	if err != nil {
		return "", err
	}

	if err := s.vectorIndex.Add(ctx, chunkID, embedding); err != nil {
		return "", err
	}
	return chunkID, nil
}

// embedWithRetry calls the provider, retrying only failures marked
// retryable. Malformed responses and validation errors fail
// immediately.
func (s *Ingestor) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 1; attempt <= embedAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		embedding, err := s.embedder.Embed(ctx, text)
		if err == nil {
			return embedding, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, err
		}
		if attempt == embedAttempts {
			break
		}

		logger.Debug("Embed attempt %d failed, retrying: %v", attempt, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * embedBackoff):
		}
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", embedAttempts, lastErr)
}
