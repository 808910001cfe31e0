package domain

// RetrievalResult is a single ranked grounding snippet. Each result is
// self-contained: the consumer can build a citation from it without
// querying storage again.
type RetrievalResult struct {
	// Chunk is the matched chunk, including content, offsets and the
	// copied file metadata.
	Chunk Chunk

	// DocumentTitle is the title of the owning document.
	DocumentTitle string

	// Score is the similarity score reported by the backend.
	Score float64
}

// Retrieval is the outcome of one retrieval call. An empty Results
// slice with a nil Err means no matches cleared the threshold; a
// non-nil Err means the similarity backend failed outright and the
// caller should proceed ungrounded.
type Retrieval struct {
	// Results is ordered by non-increasing score, ties broken by
	// ascending chunk index. Length is at most the requested topK.
	Results []RetrievalResult

	// Err annotates a degraded (empty) result caused by a hard
	// backend failure. It wraps ErrStorage.
	Err error
}

// Degraded reports whether the retrieval fell back to an empty result
// because the similarity backend was unavailable.
func (r *Retrieval) Degraded() bool {
	return r.Err != nil
}
