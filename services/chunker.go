package services

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize and DefaultChunkOverlap are the window parameters
	// used when none are configured.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// minChunkChars filters out boundary slivers: a candidate chunk whose
	// trimmed length is at or below this is discarded.
	minChunkChars = 50
)

// Chunker splits extracted document text into overlapping, boundary-aware
// segments. Chunks prefer to end at sentence-terminating punctuation past the
// window midpoint, then at a word boundary past the midpoint, and only then
// at the raw window edge.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker validates the window parameters. overlap must be strictly less
// than chunkSize, otherwise the sliding window would never advance.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into ordered, overlapping segments. Text that fits in a
// single window is returned as one trimmed chunk; an empty result means no
// usable text.
func (c *Chunker) Chunk(text string) []string {
	if len(text) <= c.chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		// end intentionally stays past len(text) on the final window so
		// the advancement below matches the emitted coverage.
		end := start + c.chunkSize
		if end < len(text) {
			end = c.adjustToBoundary(text, start, end)
			// A raw cut can land inside a multi-byte rune.
			end = backToRuneStart(text, end)
			if end <= start {
				end = start + c.chunkSize
			}
		}

		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		chunk := strings.TrimSpace(text[start:sliceEnd])
		if len(chunk) > minChunkChars {
			chunks = append(chunks, chunk)
		}

		// The overlap step must stay on a rune boundary and always move
		// forward; a boundary cut close behind the window start could
		// otherwise send it backwards.
		next := backToRuneStart(text, end-c.overlap)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// backToRuneStart moves i back to the start of the rune it points into.
// Positions outside the text are returned unchanged.
func backToRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// adjustToBoundary moves the window end back to the last sentence terminator
// past the midpoint, or failing that the last space past the midpoint. The
// raw end is kept when neither exists.
func (c *Chunker) adjustToBoundary(text string, start, end int) int {
	mid := start + c.chunkSize/2
	window := text[start:end]

	best := -1
	for _, mark := range []byte{'.', '!', '?'} {
		if pos := strings.LastIndexByte(window, mark); pos >= 0 {
			abs := start + pos
			if abs > mid && abs+1 > best {
				best = abs + 1
			}
		}
	}
	if best > 0 {
		return best
	}

	if pos := strings.LastIndexByte(window, ' '); pos >= 0 {
		if abs := start + pos; abs > mid {
			return abs
		}
	}
	return end
}
