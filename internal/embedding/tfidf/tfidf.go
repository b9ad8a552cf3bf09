// Package tfidf provides an offline TF-IDF embedder. It needs no model
// server, which makes it the dev and test profile; the vocabulary lives in
// process memory, so it pairs with the in-memory vector store only.
package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Embedder is a corpus-prepared TF-IDF vectorizer.
type Embedder struct {
	vocabulary map[string]int
	idf        []float32
	tokenRe    *regexp.Regexp
	stopwords  map[string]struct{}
	prepared   bool
}

// New creates an unprepared TF-IDF embedder.
func New() *Embedder {
	return &Embedder{
		vocabulary: make(map[string]int),
		tokenRe:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:  stopwordSet(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and smoothed IDF weights from the corpus.
// It must run before Embed; re-preparing replaces the vocabulary.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for tf-idf prepare")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float32, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		e.idf[i] = float32(math.Log((1+n)/(1+float64(df[term]))) + 1)
	}
	e.prepared = true
	return nil
}

// Dimension returns the vocabulary size, or 0 before Prepare.
func (e *Embedder) Dimension() int { return len(e.idf) }

// Embed computes the normalized TF-IDF vector of text. Texts sharing no
// vocabulary with the corpus embed to the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	if !e.prepared {
		return nil, errors.New("tf-idf embedder not prepared")
	}
	vec := make([]float32, len(e.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float32(count) / float32(total) * e.idf[idx]
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text independently, preserving order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

func stopwordSet() map[string]struct{} {
	words := strings.Fields(
		"a an the and or but if then else for to of in on at by with as is are was were be been being " +
			"it this that these those from up down over under than so such into about between through " +
			"during before after above below out off own same too very can will just should now")
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
