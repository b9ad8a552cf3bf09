// Package chromem persists chunk vectors in an embedded chromem-go database
// under a configured directory. It is the default store: no external service,
// survives restarts, created lazily on first use.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"seqassist/internal/domain"
)

// Config locates the database directory and collection.
type Config struct {
	Path       string
	Collection string
	Compress   bool
}

// Store wraps one chromem collection.
type Store struct {
	collection *chromem.Collection
}

// New opens (or creates) the database directory and collection.
// Embeddings are always supplied explicitly, so the collection carries no
// embedding function of its own.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("vector store path is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "manual_chunks"
	}
	db, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("open vector db at %s: %w", cfg.Path, err)
	}
	col, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", cfg.Collection, err)
	}
	return &Store{collection: col}, nil
}

// Count reports the number of stored entries.
func (s *Store) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Add upserts entries by chunk id with their precomputed embeddings.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:        ch.ID,
			Content:   ch.Content,
			Embedding: vectors[i],
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Query returns up to topK nearest entries by cosine distance.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	// chromem rejects nResults larger than the collection, so clamp.
	n := s.collection.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}
	found, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(found))
	for _, r := range found {
		results = append(results, domain.SearchResult{
			Chunk:    domain.Chunk{ID: r.ID, Content: r.Content},
			Distance: 1 - r.Similarity,
		})
	}
	return results, nil
}
