package memory

import (
	"context"
	"testing"

	"seqassist/internal/domain"
)

func chunk(id, content string) domain.Chunk {
	return domain.Chunk{ID: id, Content: content}
}

func TestAddLengthMismatch(t *testing.T) {
	s := New()
	err := s.Add(context.Background(), []domain.Chunk{chunk("a", "a")}, nil)
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestQueryEmptyStore(t *testing.T) {
	s := New()
	res, err := s.Query(context.Background(), []float32{1, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no results, got %d", len(res))
	}
}

func TestQueryOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	chunks := []domain.Chunk{chunk("x", "x axis"), chunk("y", "y axis"), chunk("xy", "diagonal")}
	vectors := [][]float32{{1, 0}, {0, 1}, {0.7071, 0.7071}}
	if err := s.Add(ctx, chunks, vectors); err != nil {
		t.Fatal(err)
	}

	res, err := s.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	if res[0].Chunk.ID != "x" {
		t.Fatalf("nearest chunk = %q, want x", res[0].Chunk.ID)
	}
	if res[0].Distance > 1e-6 {
		t.Fatalf("exact match distance = %f, want ~0", res[0].Distance)
	}
	for i := 1; i < len(res); i++ {
		if res[i].Distance < res[i-1].Distance {
			t.Fatal("results not ordered by ascending distance")
		}
	}
}

func TestQueryTopKClamped(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Add(ctx, []domain.Chunk{chunk("a", "a")}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	res, err := s.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
}

func TestAddUpsertsByID(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Add(ctx, []domain.Chunk{chunk("a", "first")}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, []domain.Chunk{chunk("a", "second")}, [][]float32{{0, 1}}); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count after upsert = %d, want 1", n)
	}
	res, err := s.Query(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res[0].Chunk.Content != "second" {
		t.Fatalf("upsert did not replace content: %q", res[0].Chunk.Content)
	}
}
