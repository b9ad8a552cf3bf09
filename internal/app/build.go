// Package app assembles the retrieval pipeline from configuration. Shared by
// the server and console binaries.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"seqassist/internal/chunker"
	"seqassist/internal/config"
	"seqassist/internal/domain"
	"seqassist/internal/embedding/openai"
	"seqassist/internal/embedding/tfidf"
	"seqassist/internal/extract"
	"seqassist/internal/retriever"
	"seqassist/internal/summarizer"
	"seqassist/internal/vectorstore"
	chromemstore "seqassist/internal/vectorstore/chromem"
	"seqassist/internal/vectorstore/memory"
	"seqassist/internal/vectorstore/qdrant"
)

// BuildRetriever constructs the full ingestion and search pipeline.
func BuildRetriever(cfg config.Config, logger *slog.Logger) (*retriever.Service, error) {
	embedder, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	// TF-IDF vectors are only comparable within one corpus preparation, so
	// they must not be persisted across runs.
	if cfg.Embedder.Type == "tfidf" && cfg.Store.Type != "memory" {
		logger.Warn("tfidf embeddings require the memory store, overriding", "configured", cfg.Store.Type)
		store = memory.New()
	}

	return retriever.New(retriever.Config{
		Chunker:    chunker.NewWindowChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap),
		Embedder:   embedder,
		Store:      store,
		Summarizer: summarizer.NewFrequency(cfg.Summarizer.MaxSentences),
		Extract:    extract.Text,
		DefaultPDF: cfg.Retriever.DefaultPDF,
		Logger:     logger,
	}), nil
}

func buildEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "openai":
		return openai.New(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			BatchSize: cfg.OpenAI.BatchSize,
		})
	case "tfidf":
		return tfidf.New(), nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}

func buildStore(cfg config.StoreConfig, logger *slog.Logger) (vectorstore.Store, error) {
	switch cfg.Type {
	case "chromem":
		return chromemstore.New(chromemstore.Config{
			Path:       cfg.Path,
			Collection: cfg.Collection,
		})
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant store selected but not configured")
		}
		return qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	case "memory":
		logger.Warn("memory store selected, vectors will not survive restarts")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
