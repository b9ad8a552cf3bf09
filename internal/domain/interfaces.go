package domain

import "context"

// Chunk is the atomic retrievable unit: a bounded substring of ingested
// document text with a stable, content-derived identifier.
type Chunk struct {
	ID      string
	Content string
}

// SearchResult pairs a chunk with its cosine distance to a query vector.
// Smaller distance means more similar; result lists are ordered ascending.
type SearchResult struct {
	Chunk    Chunk
	Distance float32
}

// IngestReport describes the outcome of ingesting one document.
type IngestReport struct {
	ChunksAdded int
	Summary     string
}

// ExecResult is the outcome of one sandboxed script run. Error is set if and
// only if execution faulted; ImageBase64 is set only when execution succeeded
// and the script created at least one figure.
type ExecResult struct {
	Stdout      string
	ImageBase64 string
	Error       string
}

// Embedder converts free text into L2-normalized numeric vectors.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits raw extracted text into windows suitable for indexing.
type Chunker interface {
	Chunk(text string) []string
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// TextExtractor reads a document on disk and returns its plain text.
// A missing or unparsable document reads as the empty string, never an error.
type TextExtractor func(path string) string
