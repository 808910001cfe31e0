package domain

import "time"

// Document represents one ingested course material.
// It is the canonical representation after text extraction.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// CourseCode identifies the course this material belongs to (e.g. "CSE-101").
	CourseCode string

	// Topic is the subject area covered by the material.
	Topic string

	// WeekNumber is the course week this material is scheduled for.
	WeekNumber int

	// Tags contains free-form labels for filtering.
	Tags []string

	// Content is the full extracted text before chunking.
	Content string

	// FileURL is the storage location of the original file.
	FileURL string

	// FileMetadata describes the uploaded source file. A copy is
	// propagated onto every chunk so retrieval results are
	// self-contained.
	FileMetadata FileMetadata

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// FileMetadata describes the source file a document came from.
// Chunks carry a copy so a retrieval result never needs a second
// storage round trip to build a citation.
type FileMetadata struct {
	// FileName is the original upload file name.
	FileName string

	// ContentType is the MIME type of the source file.
	ContentType string

	// SizeBytes is the source file size.
	SizeBytes int64

	// Provider is the embedding provider used at ingestion time.
	// Vectors from different providers are never compared.
	Provider string

	// CreatedAt is when the chunk set was produced.
	CreatedAt time.Time
}

// Chunk represents the unit of retrieval: a contiguous, possibly
// overlapping slice of a document's text. Chunks are created once
// during ingestion and never mutated, only superseded by re-ingesting
// the whole document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the zero-based sequence position within the document.
	// It is gapless and strictly increasing per document.
	Index int

	// Content is the text content of this chunk.
	Content string

	// StartChar is the byte offset of the chunk in the original text.
	StartChar int

	// EndChar is the byte offset one past the end of the chunk.
	// Invariant: EndChar > StartChar.
	EndChar int

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Metadata is the document-level file metadata copied onto the
	// chunk at build time.
	Metadata FileMetadata
}
