package retriever

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"seqassist/internal/chunker"
	"seqassist/internal/vectorstore/memory"
)

// letterEmbedder maps text onto a normalized 26-dim letter histogram. It is
// deterministic and needs no network, which is all these tests require.
type letterEmbedder struct{}

func (letterEmbedder) Name() string           { return "letters" }
func (letterEmbedder) Prepare([]string) error { return nil }
func (letterEmbedder) Dimension() int         { return 26 }

func (e letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func (e letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// countingExtractor returns fixed text and counts invocations.
type countingExtractor struct {
	mu    sync.Mutex
	calls int
	text  string
}

func (c *countingExtractor) extract(string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.text
}

func (c *countingExtractor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestService(ext *countingExtractor, defaultPDF string) *Service {
	return New(Config{
		Chunker:    chunker.NewWindowChunker(80, 10),
		Embedder:   letterEmbedder{},
		Store:      memory.New(),
		Extract:    ext.extract,
		DefaultPDF: defaultPDF,
	})
}

func TestRetrieveEmptyStoreNoDefault(t *testing.T) {
	ext := &countingExtractor{text: "unused"}
	s := newTestService(ext, "")

	res, err := s.Retrieve(context.Background(), "anything", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no results, got %d", len(res))
	}
	if ext.count() != 0 {
		t.Fatal("extractor should not run without a default document")
	}
}

func TestRetrieveIngestsDefaultOnce(t *testing.T) {
	ext := &countingExtractor{text: strings.Repeat("quality control of sequencing runs. ", 20)}
	s := newTestService(ext, "manual.pdf")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Retrieve(context.Background(), "quality control", 4)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := ext.count(); got != 1 {
		t.Fatalf("extractor ran %d times, want 1", got)
	}
}

func TestRetrieveRanksExactChunkFirst(t *testing.T) {
	ext := &countingExtractor{text: "zebra zebra zebra zebra"}
	s := New(Config{
		Chunker:    chunker.NewWindowChunker(600, 100),
		Embedder:   letterEmbedder{},
		Store:      memory.New(),
		Extract:    ext.extract,
		DefaultPDF: "manual.pdf",
	})
	res, err := s.Retrieve(context.Background(), "zebra zebra zebra zebra", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	if res[0].Distance > 1e-5 {
		t.Fatalf("identical text distance = %f, want ~0", res[0].Distance)
	}
}

func TestProcessPDFIdempotent(t *testing.T) {
	ctx := context.Background()
	ext := &countingExtractor{text: strings.Repeat("differential expression testing. ", 30)}
	store := memory.New()
	s := New(Config{
		Chunker:  chunker.NewWindowChunker(100, 20),
		Embedder: letterEmbedder{},
		Store:    store,
		Extract:  ext.extract,
	})

	first, err := s.ProcessPDF(ctx, "doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if first.ChunksAdded == 0 {
		t.Fatal("expected chunks from first ingestion")
	}
	n1, _ := store.Count(ctx)

	second, err := s.ProcessPDF(ctx, "doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if second.ChunksAdded != first.ChunksAdded {
		t.Fatalf("chunk counts differ: %d vs %d", first.ChunksAdded, second.ChunksAdded)
	}
	n2, _ := store.Count(ctx)
	if n1 != n2 {
		t.Fatalf("store grew on re-ingestion: %d -> %d", n1, n2)
	}
}

func TestProcessPDFEmptyDocument(t *testing.T) {
	ext := &countingExtractor{text: "   \n\t  "}
	s := newTestService(ext, "")

	report, err := s.ProcessPDF(context.Background(), "empty.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if report.ChunksAdded != 0 || report.Summary != "" {
		t.Fatalf("expected zero report, got %+v", report)
	}
}
