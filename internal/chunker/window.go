package chunker

import (
	"strings"
	"unicode/utf8"
)

// Defaults match the retrieval index the assistant was tuned against.
const (
	DefaultChunkSize = 600
	DefaultOverlap   = 100
)

// WindowChunker splits raw text into fixed-width overlapping windows.
// There is no sentence or paragraph awareness; windows may split mid-word.
// That approximation is part of the index contract and is kept on purpose.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a chunker with the given window size and overlap.
// Invalid values are clamped so that every window advances by at least one
// byte; an overlap equal to or larger than the size would otherwise never
// terminate.
func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &WindowChunker{size: size, overlap: overlap}
}

// Chunk returns the windows of text in document order. Window edges landing
// inside a multi-byte rune are snapped to the nearest boundary so every chunk
// is valid UTF-8. Windows that are empty or whitespace-only after extraction
// are dropped. Empty input yields nil.
func (c *WindowChunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	stride := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(text); start += stride {
		from := start
		for from < len(text) && !utf8.RuneStart(text[from]) {
			from++
		}
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			// Extend rather than shrink so the split rune stays in this
			// window and coverage holds at any overlap.
			for end < len(text) && !utf8.RuneStart(text[end]) {
				end++
			}
		}
		if from >= end {
			continue
		}
		window := text[from:end]
		if strings.TrimSpace(window) == "" {
			continue
		}
		chunks = append(chunks, window)
	}
	return chunks
}

// Size reports the configured window size in bytes.
func (c *WindowChunker) Size() int { return c.size }

// Overlap reports the configured overlap in bytes.
func (c *WindowChunker) Overlap() int { return c.overlap }
