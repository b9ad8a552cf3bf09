package chromem

import (
	"context"
	"testing"

	"seqassist/internal/domain"
)

func testChunks() ([]domain.Chunk, [][]float32) {
	chunks := []domain.Chunk{
		{ID: "chunk-a", Content: "alignment of sequencing reads"},
		{ID: "chunk-b", Content: "normalization of count matrices"},
		{ID: "chunk-c", Content: "principal component analysis"},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	return chunks, vectors
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(Config{Path: t.TempDir(), Collection: "test_chunks"})
	if err != nil {
		t.Fatal(err)
	}

	chunks, vectors := testChunks()
	if err := s.Add(ctx, chunks, vectors); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	res, err := s.Query(ctx, []float32{0, 1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if res[0].Chunk.ID != "chunk-b" {
		t.Fatalf("nearest = %q, want chunk-b", res[0].Chunk.ID)
	}
	if res[0].Distance > 1e-5 {
		t.Fatalf("exact match distance = %f, want ~0", res[0].Distance)
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	s, err := New(Config{Path: t.TempDir(), Collection: "empty"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Query(context.Background(), []float32{1, 0, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no results from empty collection, got %d", len(res))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(Config{Path: dir, Collection: "persisted"})
	if err != nil {
		t.Fatal(err)
	}
	chunks, vectors := testChunks()
	if err := s.Add(ctx, chunks, vectors); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(Config{Path: dir, Collection: "persisted"})
	if err != nil {
		t.Fatal(err)
	}
	n, err := reopened.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("count after reopen = %d, want 3", n)
	}
}

func TestAddUpsertsByID(t *testing.T) {
	ctx := context.Background()
	s, err := New(Config{Path: t.TempDir(), Collection: "upsert"})
	if err != nil {
		t.Fatal(err)
	}
	chunks, vectors := testChunks()
	if err := s.Add(ctx, chunks, vectors); err != nil {
		t.Fatal(err)
	}
	// Same ids again: the collection must not grow.
	if err := s.Add(ctx, chunks, vectors); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("count after re-add = %d, want 3", n)
	}
}
