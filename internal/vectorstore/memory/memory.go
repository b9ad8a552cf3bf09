// Package memory is a brute-force in-process vector store.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"seqassist/internal/domain"
)

// Store keeps chunks and vectors in parallel slices and scans them all on
// every query. Fine for a single manual's worth of chunks; it is the test
// double and the offline profile, not the production path.
type Store struct {
	mu      sync.RWMutex
	index   map[string]int
	chunks  []domain.Chunk
	vectors [][]float32
}

// New creates an empty store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Count reports the number of stored entries.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Add upserts entries by chunk id.
func (s *Store) Add(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ch := range chunks {
		if len(s.vectors) > 0 && len(vectors[i]) != len(s.vectors[0]) {
			return errors.New("vector dimension mismatch")
		}
		if at, ok := s.index[ch.ID]; ok {
			s.chunks[at] = ch
			s.vectors[at] = vectors[i]
			continue
		}
		s.index[ch.ID] = len(s.chunks)
		s.chunks = append(s.chunks, ch)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

// Query scans all vectors and returns the topK nearest by cosine distance.
// Stored and query vectors are assumed normalized, so distance = 1 - dot.
func (s *Store) Query(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, len(s.chunks))
	for i := range s.chunks {
		results[i] = domain.SearchResult{
			Chunk:    s.chunks[i],
			Distance: 1 - dot(s.vectors[i], vector),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
