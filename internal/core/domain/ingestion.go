package domain

// ChunkOutcome records the result of embedding and persisting one
// chunk during ingestion. Failures are captured here rather than
// logged and forgotten, so callers can detect partial grounding.
type ChunkOutcome struct {
	// Index is the chunk's sequence position within the document.
	Index int

	// ChunkID is the persisted record identifier. Empty on failure.
	ChunkID string

	// Err is the reason this chunk was skipped. Nil on success.
	Err error
}

// Succeeded reports whether the chunk was embedded and persisted.
func (o ChunkOutcome) Succeeded() bool {
	return o.Err == nil
}

// IngestReport summarises one ingestion call. ChunkCount and
// Succeeded always both appear so a caller can detect a partially
// grounded document.
type IngestReport struct {
	// DocumentID is the identifier assigned to the ingested document.
	DocumentID string

	// ChunkCount is the number of chunks built from the document text.
	ChunkCount int

	// Succeeded is the number of chunks embedded and persisted.
	Succeeded int

	// Outcomes holds one entry per chunk, in chunk index order.
	Outcomes []ChunkOutcome
}

// Partial reports whether at least one chunk was skipped.
func (r *IngestReport) Partial() bool {
	return r.Succeeded < r.ChunkCount
}
