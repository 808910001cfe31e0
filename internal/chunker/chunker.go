// Package chunker splits extracted document text into overlapping,
// size-bounded chunks on sentence boundaries.
package chunker

import (
	"github.com/google/uuid"

	"github.com/campus-labs/lectern/internal/core/domain"
)

// DefaultMaxChars is the default chunk size in characters.
const DefaultMaxChars = 600

// DefaultOverlapChars is the default overlap carried between chunks.
const DefaultOverlapChars = 100

// averageWordLen approximates characters per word when converting the
// overlap budget into a word count for the seed of the next chunk.
const averageWordLen = 5

// Builder accumulates sentences into overlapping chunks. Build is a
// pure function of its inputs apart from generated chunk IDs.
type Builder struct {
	maxChars     int
	overlapChars int
}

// Option configures the chunk builder.
type Option func(*Builder)

// WithMaxChars sets the chunk size bound in characters.
func WithMaxChars(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxChars = n
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.overlapChars = n
		}
	}
}

// New creates a chunk builder with the given options.
func New(opts ...Option) *Builder {
	b := &Builder{
		maxChars:     DefaultMaxChars,
		overlapChars: DefaultOverlapChars,
	}

	for _, opt := range opts {
		opt(b)
	}

	// Overlap must leave room for new content in every chunk.
	if b.overlapChars >= b.maxChars {
		b.overlapChars = b.maxChars / 4
	}

	return b
}

// Build segments text and greedily accumulates sentences into chunks
// of at most maxChars, seeding each new chunk with the tail words of
// the one just closed. Every chunk is a contiguous trimmed slice of
// the original text, so StartChar/EndChar are exact provenance, not a
// first-occurrence guess. Empty input yields zero chunks.
//
// A single sentence longer than maxChars becomes an oversized chunk
// rather than being cut mid-token; text with no sentence boundary at
// all is split into fixed-size windows instead, since there is no
// prior sentence to seed overlap from.
func (b *Builder) Build(text, documentID string, meta domain.FileMetadata) []domain.Chunk {
	sentences := Segment(text)
	if len(sentences) == 0 {
		return nil
	}

	if len(sentences) == 1 && len(sentences[0].Text) > b.maxChars {
		return b.windowChunks(text, sentences[0], documentID, meta)
	}

	var chunks []domain.Chunk
	index := 0
	chunkStart := sentences[0].Start
	prevEnd := sentences[0].End

	for _, s := range sentences[1:] {
		// The open chunk always holds at least one sentence, so an
		// oversized lone sentence closes as its own chunk here.
		if s.End-chunkStart > b.maxChars {
			chunks = append(chunks, b.chunkAt(text, documentID, index, chunkStart, prevEnd, meta))
			index++

			chunkStart = s.Start
			if b.overlapChars > 0 {
				words := (b.overlapChars + averageWordLen - 1) / averageWordLen
				chunkStart = lastWordsStart(text, chunks[len(chunks)-1].StartChar, prevEnd, words)
			}
		}
		prevEnd = s.End
	}

	chunks = append(chunks, b.chunkAt(text, documentID, index, chunkStart, prevEnd, meta))
	return chunks
}

// windowChunks splits a single boundary-less sentence into fixed-size
// windows. No overlap is seeded: there are no prior sentences to seed from.
func (b *Builder) windowChunks(text string, s Sentence, documentID string, meta domain.FileMetadata) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0

	for start := s.Start; start < s.End; start += b.maxChars {
		end := start + b.maxChars
		if end > s.End {
			end = s.End
		}
		c := b.chunkAt(text, documentID, index, start, end, meta)
		if c.EndChar <= c.StartChar {
			continue // all-whitespace window
		}
		chunks = append(chunks, c)
		index++
	}

	return chunks
}

// chunkAt materialises the chunk covering text[start:end], excluding
// surrounding whitespace from both the content and the offsets.
func (b *Builder) chunkAt(text, documentID string, index, start, end int, meta domain.FileMetadata) domain.Chunk {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}

	return domain.Chunk{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Index:      index,
		Content:    text[start:end],
		StartChar:  start,
		EndChar:    end,
		Metadata:   meta,
	}
}

// lastWordsStart returns the offset where the last n words of
// text[from:to] begin. It never backs up past from.
func lastWordsStart(text string, from, to, n int) int {
	i := to
	for i > from && isSpace(text[i-1]) {
		i--
	}

	words := 0
	for i > from {
		for i > from && !isSpace(text[i-1]) {
			i--
		}
		words++
		if words == n {
			break
		}
		for i > from && isSpace(text[i-1]) {
			i--
		}
	}

	return i
}
