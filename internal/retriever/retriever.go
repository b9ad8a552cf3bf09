// Package retriever ties extraction, chunking, embedding and the vector
// store together into the ingestion and search pipeline.
package retriever

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"seqassist/internal/domain"
	"seqassist/internal/vectorstore"
)

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultTopK = 4

// Config wires the pipeline stages together.
type Config struct {
	Chunker    domain.Chunker
	Embedder   domain.Embedder
	Store      vectorstore.Store
	Summarizer domain.Summarizer
	Extract    domain.TextExtractor

	// DefaultPDF, when set, is ingested lazily on the first query that
	// finds the store empty.
	DefaultPDF string

	Logger *slog.Logger
}

// Service answers similarity queries over ingested documents.
type Service struct {
	chunker    domain.Chunker
	embedder   domain.Embedder
	store      vectorstore.Store
	summarizer domain.Summarizer
	extract    domain.TextExtractor
	defaultPDF string
	logger     *slog.Logger

	// ingestMu serializes ingestion so concurrent cold queries trigger
	// exactly one pass over the default document.
	ingestMu sync.Mutex
}

// New builds a retrieval service from its stages.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		chunker:    cfg.Chunker,
		embedder:   cfg.Embedder,
		store:      cfg.Store,
		summarizer: cfg.Summarizer,
		extract:    cfg.Extract,
		defaultPDF: cfg.DefaultPDF,
		logger:     logger,
	}
}

// Retrieve returns the topK chunks nearest to the query. On the first call
// against an empty store it ingests the configured default document. An empty
// store with no default document yields no results and no error.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count store: %w", err)
	}
	if n == 0 {
		if err := s.ensureDefaultIngested(ctx); err != nil {
			return nil, err
		}
		if n, err = s.store.Count(ctx); err != nil {
			return nil, fmt.Errorf("count store: %w", err)
		}
		if n == 0 {
			return nil, nil
		}
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.store.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	return results, nil
}

// ProcessPDF extracts, chunks, embeds and stores one document, returning how
// many chunks were written and a short extractive summary. Unreadable or
// empty documents produce a zero report, not an error.
func (s *Service) ProcessPDF(ctx context.Context, path string) (domain.IngestReport, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	return s.ingest(ctx, path)
}

func (s *Service) ensureDefaultIngested(ctx context.Context) error {
	if s.defaultPDF == "" {
		return nil
	}
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	// Another query may have finished the ingestion while we waited.
	n, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count store: %w", err)
	}
	if n > 0 {
		return nil
	}
	s.logger.Info("store empty, ingesting default document", "path", s.defaultPDF)
	_, err = s.ingest(ctx, s.defaultPDF)
	return err
}

// ingest runs the pipeline for one document. Callers hold ingestMu.
func (s *Service) ingest(ctx context.Context, path string) (domain.IngestReport, error) {
	text := s.extract(path)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("document produced no text", "path", path)
		return domain.IngestReport{}, nil
	}

	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return domain.IngestReport{}, nil
	}
	if err := s.embedder.Prepare(chunks); err != nil {
		return domain.IngestReport{}, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("embed chunks: %w", err)
	}

	entries := make([]domain.Chunk, len(chunks))
	for i, content := range chunks {
		entries[i] = domain.Chunk{ID: chunkID(content), Content: content}
	}
	if err := s.store.Add(ctx, entries, vectors); err != nil {
		return domain.IngestReport{}, fmt.Errorf("store chunks: %w", err)
	}

	report := domain.IngestReport{ChunksAdded: len(entries)}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(text, 5)
		if err != nil {
			s.logger.Warn("summarization failed", "path", path, "error", err)
		} else {
			report.Summary = summary
		}
	}
	s.logger.Info("document ingested", "path", path, "chunks", len(entries))
	return report, nil
}

// chunkID derives a stable id from the chunk content so re-ingesting the
// same document upserts instead of duplicating.
func chunkID(content string) string {
	sum := sha1.Sum([]byte(content))
	return "chunk-" + hex.EncodeToString(sum[:8])
}
