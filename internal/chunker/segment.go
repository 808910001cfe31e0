package chunker

import "strings"

// Sentence is one segmented unit of a document's text, retaining its
// terminal punctuation and carrying exact byte offsets into the
// original text.
type Sentence struct {
	// Text is the sentence content, leading whitespace stripped.
	Text string

	// Start is the byte offset of the first character in the original text.
	Start int

	// End is the byte offset one past the last character (the final
	// punctuation of the terminator run).
	End int
}

// Segment splits text into sentence-like units on runs of '.', '!' and
// '?' that immediately follow a non-terminator character. If the text
// contains no boundary at all, the whole text is returned as a single
// sentence. Segment is a pure function.
//
// The split is intentionally coarse: abbreviations and decimal numbers
// are not special-cased. Smarter heuristics would move chunk
// boundaries non-deterministically between ingestions of the same
// document, which matters more than occasionally splitting "e.g." in
// two.
func Segment(text string) []Sentence {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sentences []Sentence
	start := 0
	n := len(text)

	for i := 0; i < n; i++ {
		if !isTerminator(text[i]) {
			continue
		}

		// Extend over the full terminator run ("...", "?!").
		j := i
		for j+1 < n && isTerminator(text[j+1]) {
			j++
		}

		// Only a run following sentence content is a boundary; a
		// leading terminator belongs to the sentence being built.
		if i > start {
			if s, ok := sentenceAt(text, start, j+1); ok {
				sentences = append(sentences, s)
			}
			start = j + 1
		}
		i = j
	}

	// Trailing text without a terminator is still a sentence.
	if s, ok := sentenceAt(text, start, n); ok {
		sentences = append(sentences, s)
	}

	if len(sentences) == 0 {
		// Nothing but terminators and whitespace after the first
		// boundary scan; treat the trimmed text as one sentence.
		if s, ok := sentenceAt(text, 0, n); ok {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

// sentenceAt builds a Sentence for text[start:end] with leading and
// trailing whitespace excluded from the offsets. Returns false when
// the span is all whitespace.
func sentenceAt(text string, start, end int) (Sentence, bool) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	if start >= end {
		return Sentence{}, false
	}
	return Sentence{
		Text:  text[start:end],
		Start: start,
		End:   end,
	}, true
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
