package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or empty input text or
	// metadata. This is the caller's fault and is never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProviderUnavailable indicates a transient network or auth
	// failure reaching an embedding provider. Retryable with backoff
	// and bounded attempts.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrProviderResponse indicates the provider returned a response
	// that fails the vector-shape contract (malformed or empty vector).
	// Not retried; the affected chunk is skipped.
	ErrProviderResponse = errors.New("invalid embedding response")

	// ErrStorage indicates a persistence or similarity-search backend
	// failure. Fatal during document persistence, degrades retrieval
	// to an empty annotated result.
	ErrStorage = errors.New("storage backend failure")

	// ErrIngestionAborted indicates document metadata persistence
	// failed, so no part of the ingestion could proceed.
	ErrIngestionAborted = errors.New("ingestion aborted")

	// ErrProviderMismatch indicates a query used a different embedding
	// provider than the one the target corpus was ingested with.
	// Cross-provider similarity scores are meaningless, so the call is
	// rejected rather than silently returning garbage.
	ErrProviderMismatch = errors.New("embedding provider mismatch")

	// ErrUnsupportedProvider indicates an unknown embedding provider name.
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
)
