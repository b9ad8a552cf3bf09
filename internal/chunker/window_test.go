package chunker

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestChunkEmptyInput(t *testing.T) {
	c := NewWindowChunker(600, 100)
	if got := c.Chunk(""); got != nil {
		t.Fatalf("expected nil for empty input, got %d chunks", len(got))
	}
}

func TestChunkShortInput(t *testing.T) {
	c := NewWindowChunker(600, 100)
	got := c.Chunk("hello world")
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("expected single chunk with full text, got %v", got)
	}
}

func TestChunkWhitespaceOnlyDropped(t *testing.T) {
	c := NewWindowChunker(4, 0)
	got := c.Chunk("abcd    efgh")
	for _, ch := range got {
		if strings.TrimSpace(ch) == "" {
			t.Fatalf("whitespace-only chunk not filtered: %q", ch)
		}
	}
}

func TestChunkCoversEveryByte(t *testing.T) {
	text := strings.Repeat("abcdefghij", 1000)
	c := NewWindowChunker(600, 100)
	chunks := c.Chunk(text)

	covered := make([]bool, len(text))
	offset := 0
	stride := c.Size() - c.Overlap()
	for _, ch := range chunks {
		for i := range ch {
			covered[offset+i] = true
		}
		offset += stride
	}
	for i, ok := range covered {
		if !ok {
			t.Fatalf("byte %d not covered by any chunk", i)
		}
	}
}

func TestChunkWindowGeometry(t *testing.T) {
	// 10000 characters at size=600/overlap=100 gives ceil((10000-100)/500)
	// windows, each at most 600 bytes, each overlapping its successor by
	// exactly 100 bytes except for trailing truncation.
	text := strings.Repeat("x", 9999) + "y"
	c := NewWindowChunker(600, 100)
	chunks := c.Chunk(text)

	if want := 20; len(chunks) != want {
		t.Fatalf("chunk count = %d, want %d", len(chunks), want)
	}
	for i, ch := range chunks {
		if len(ch) > 600 {
			t.Fatalf("chunk %d longer than window size: %d", i, len(ch))
		}
	}
	for i := 0; i < len(chunks)-1; i++ {
		if len(chunks[i]) == 600 {
			tail := chunks[i][500:]
			head := chunks[i+1][:100]
			if tail != head {
				t.Fatalf("chunks %d and %d do not overlap by 100 bytes", i, i+1)
			}
		}
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(last, "y") {
		t.Fatalf("final chunk does not reach end of text")
	}
}

func TestChunkKeepsRunesIntact(t *testing.T) {
	// Three-byte runes with a window size that is not a multiple of three,
	// so raw byte slicing would cut runes at the edges.
	text := strings.Repeat("配列解析の手順書", 50)
	c := NewWindowChunker(10, 3)
	chunks := c.Chunk(text)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, ch := range chunks {
		if !utf8.ValidString(ch) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, ch)
		}
	}
	seen := make(map[rune]bool)
	for _, ch := range chunks {
		for _, r := range ch {
			seen[r] = true
		}
	}
	for _, r := range text {
		if !seen[r] {
			t.Fatalf("rune %q lost at a window boundary", r)
		}
	}
}

func TestChunkIdempotent(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 200)
	c := NewWindowChunker(600, 100)
	a := c.Chunk(text)
	b := c.Chunk(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkTerminatesWithDegenerateOverlap(t *testing.T) {
	// overlap >= size is clamped at construction; the chunker must still
	// terminate and cover the input.
	c := NewWindowChunker(10, 50)
	text := strings.Repeat("a", 100)

	done := make(chan []string, 1)
	go func() { done <- c.Chunk(text) }()
	select {
	case chunks := <-done:
		if len(chunks) == 0 {
			t.Fatal("no chunks produced")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("chunker did not terminate")
	}
}
