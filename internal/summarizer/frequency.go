// Package summarizer produces short extractive summaries by scoring
// sentences against document-wide word frequencies.
package summarizer

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

var stopwords = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(`a an and are as at be but by for from has have if in is it its of on or that the to was were will with this these those not no you your we our i`) {
		set[w] = struct{}{}
	}
	return set
}()

// Frequency is a word-frequency extractive summarizer. The zero value is not
// usable; construct with NewFrequency.
type Frequency struct {
	maxSentences int
}

// NewFrequency returns a summarizer capped at maxSentences per summary.
func NewFrequency(maxSentences int) *Frequency {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	return &Frequency{maxSentences: maxSentences}
}

// Summarize returns up to maxSentences of the highest-scoring sentences in
// their original document order. The per-call maxSentences overrides the
// constructor cap when positive.
func (f *Frequency) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = f.maxSentences
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty text")
	}

	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		// No terminal punctuation; treat the whole text as one sentence.
		sentences = []string{strings.TrimSpace(text)}
	}
	if len(sentences) <= maxSentences {
		return joinSentences(sentences), nil
	}

	freq := wordFrequencies(text)

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		words := wordRe.FindAllString(strings.ToLower(s), -1)
		var sum float64
		n := 0
		for _, w := range words {
			if _, skip := stopwords[w]; skip {
				continue
			}
			sum += freq[w]
			n++
		}
		if n > 0 {
			// Dampened length normalization so long sentences are not
			// automatically favored.
			sum /= math.Sqrt(float64(n))
		}
		ranked[i] = scored{index: i, score: sum}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	top := ranked[:maxSentences]
	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	picked := make([]string, len(top))
	for i, s := range top {
		picked[i] = sentences[s.index]
	}
	return joinSentences(picked), nil
}

func wordFrequencies(text string) map[string]float64 {
	freq := make(map[string]float64)
	max := 0.0
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, skip := stopwords[w]; skip {
			continue
		}
		freq[w]++
		if freq[w] > max {
			max = freq[w]
		}
	}
	if max > 0 {
		for w := range freq {
			freq[w] /= max
		}
	}
	return freq
}

func joinSentences(sentences []string) string {
	for i, s := range sentences {
		sentences[i] = strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(sentences, " ")
}
