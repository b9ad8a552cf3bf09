// Package vectorstore defines the storage contract for chunk vectors.
// Implementations live in subpackages: memory (tests and the offline
// profile), chromem (embedded, directory-persisted, the default), and qdrant
// (remote REST).
package vectorstore

import (
	"context"

	"seqassist/internal/domain"
)

// Store persists (id, document, embedding) triples and answers
// nearest-neighbor queries. Adding a chunk whose id already exists upserts
// it, which is what makes content-hash ids idempotent under re-ingestion.
type Store interface {
	// Count reports the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Add appends entries. Callers guarantee len(chunks) == len(vectors)
	// and that all vectors share one dimensionality.
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Query returns up to topK stored entries nearest to vector, ordered
	// by ascending cosine distance.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
}
