// Package qdrant is a minimal REST client for a remote Qdrant collection.
// It assumes cosine distance and creates the collection on first write.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"seqassist/internal/domain"
)

// Config contains connection details for a Qdrant store.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store talks to one Qdrant collection over HTTP.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	ensureOnce sync.Once
	ensureErr  error
}

// New creates a Qdrant store client. The collection is created lazily on the
// first Add, when the vector dimensionality is known.
func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Count reports the number of stored points, or 0 if the collection does not
// exist yet.
func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection)
	err := s.do(ctx, http.MethodPost, url, map[string]any{"exact": true}, &resp)
	if err != nil {
		// A 404 means the collection has not been created; that is the
		// empty steady state, not a failure.
		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	return resp.Result.Count, nil
}

// Add upserts points by chunk id, creating the collection first if needed.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	points := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		points[i] = map[string]any{
			"id":     pointID(ch.ID),
			"vector": vectors[i],
			"payload": map[string]any{
				"chunk_id": ch.ID,
				"text":     ch.Content,
			},
		}
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
	return s.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil)
}

// Query returns up to topK nearest points by cosine distance.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			chunk.ID = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Content = v
		}
		// Qdrant reports cosine similarity as the score.
		results = append(results, domain.SearchResult{Chunk: chunk, Distance: 1 - r.Score})
	}
	return results, nil
}

func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	s.ensureOnce.Do(func() {
		if dimension <= 0 {
			s.ensureErr = errors.New("invalid vector dimension")
			return
		}
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		url := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
		s.ensureErr = s.do(ctx, http.MethodPut, url, body, nil)
	})
	return s.ensureErr
}

// pointID maps a chunk id onto a Qdrant-accepted id (UUID or unsigned int).
// Chunk ids are hex content hashes, so a derived UUID keeps upserts stable.
func pointID(chunkID string) string {
	hex := make([]byte, 0, 32)
	for i := 0; i < len(chunkID); i++ {
		c := chunkID[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			hex = append(hex, c)
		}
	}
	for len(hex) < 32 {
		hex = append(hex, '0')
	}
	h := string(hex[:32])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string { return fmt.Sprintf("qdrant request failed: %s", e.status) }

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
