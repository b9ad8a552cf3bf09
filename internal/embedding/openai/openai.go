// Package openai embeds text through an OpenAI-compatible embeddings
// endpoint. Pointing BaseURL at an Ollama server's /v1 prefix works with any
// placeholder key.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel     = "text-embedding-3-small"
	defaultBatchSize = 32
)

// Config configures the embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	BatchSize int
}

// Embedder produces L2-normalized embedding vectors. The dimension is learned
// lazily from the first response, like the model server itself reports it.
type Embedder struct {
	client    *openai.Client
	model     string
	batchSize int
	dimension int
}

// New creates an embeddings client from the configuration. The API key is
// read from the environment variable named by APIKeyEnv.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Embedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		batchSize: batch,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "openai" }

// Prepare is not required for remote embedding.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension returns the vector dimensionality, or 0 before the first embed.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the normalized embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in request batches of the configured size,
// preserving input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), end-start)
		}
		for _, d := range resp.Data {
			if len(d.Embedding) == 0 {
				return nil, errors.New("empty embedding returned")
			}
			vec := make([]float32, len(d.Embedding))
			copy(vec, d.Embedding)
			l2Normalize(vec)
			if e.dimension == 0 {
				e.dimension = len(vec)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

// l2Normalize scales v to unit length in place. Downstream distance scoring
// assumes every stored and query vector is normalized.
func l2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
