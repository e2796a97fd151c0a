// Package chunker splits page text into context-coherent passages.
// Boundaries are placed where the embedding similarity between
// consecutive sentences drops, not at fixed character counts.
package chunker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"docchat/internal/embedding"
	"docchat/internal/models"
)

type Chunker struct {
	embedder embedding.Embedder
	// breakpointPercentile is the percentile of the consecutive-
	// sentence distance distribution above which a boundary is
	// inserted. Deterministic for fixed input.
	breakpointPercentile float64
}

func New(embedder embedding.Embedder, breakpointPercentile float64) *Chunker {
	if breakpointPercentile <= 0 || breakpointPercentile > 100 {
		breakpointPercentile = 95
	}
	return &Chunker{embedder: embedder, breakpointPercentile: breakpointPercentile}
}

type sentence struct {
	text string
	page int
}

// Split chunks the pages into ordered, non-empty passages. The
// passages concatenated in order reproduce the page text modulo
// whitespace.
func (c *Chunker) Split(ctx context.Context, pages []models.PageText) ([]models.Passage, error) {
	sentences := splitSentences(pages)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: no sentences found", models.ErrEmptyDocument)
	}
	if len(sentences) == 1 {
		return []models.Passage{{Content: sentences[0].text, Page: sentences[0].page, Seq: 0}}, nil
	}

	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.text
	}
	vectors, err := embedding.EmbedBatch(ctx, c.embedder, texts)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(vectors)-1)
	for i := 0; i < len(vectors)-1; i++ {
		distances[i] = 1 - cosineSimilarity(vectors[i], vectors[i+1])
	}
	threshold := percentile(distances, c.breakpointPercentile)

	var passages []models.Passage
	start := 0
	for i, d := range distances {
		if d > threshold {
			passages = append(passages, joinSentences(sentences[start:i+1], len(passages)))
			start = i + 1
		}
	}
	passages = append(passages, joinSentences(sentences[start:], len(passages)))
	return passages, nil
}

func joinSentences(group []sentence, seq int) models.Passage {
	parts := make([]string, len(group))
	for i, s := range group {
		parts[i] = s.text
	}
	return models.Passage{
		Content: strings.Join(parts, " "),
		Page:    group[0].page,
		Seq:     seq,
	}
}

// splitSentences breaks page text on sentence terminators, both
// Latin (. ! ?) and fullwidth CJK (。 ！ ？). Latin terminators only
// end a sentence at end of text or before whitespace, which keeps
// decimals like "3.14" intact; CJK text carries no spaces, so a
// fullwidth terminator always ends the sentence. Trailing text
// without a terminator is kept as a final sentence so no input is
// ever dropped.
func splitSentences(pages []models.PageText) []sentence {
	var out []sentence
	for _, page := range pages {
		runes := []rune(page.Text)
		start := 0
		for i := 0; i < len(runes); i++ {
			if !isTerminator(runes[i]) {
				continue
			}
			// consume runs of terminators ("..", "?!")
			end := i + 1
			cjk := isCJKTerminator(runes[i])
			for end < len(runes) && isTerminator(runes[end]) {
				cjk = cjk || isCJKTerminator(runes[end])
				end++
			}
			if !cjk && end < len(runes) && !unicode.IsSpace(runes[end]) {
				i = end - 1
				continue
			}
			if s := strings.TrimSpace(string(runes[start:end])); s != "" {
				out = append(out, sentence{text: s, page: page.Page})
			}
			start = end
			i = end - 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, sentence{text: s, page: page.Page})
		}
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || isCJKTerminator(r)
}

func isCJKTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// percentile returns the linearly interpolated p-th percentile.
func percentile(vals []float64, p float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
