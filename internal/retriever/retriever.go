// Package retriever turns a question into ranked context passages.
package retriever

import (
	"context"
	"strings"

	"docchat/internal/embedding"
	"docchat/internal/models"
	"docchat/internal/vectorindex"
)

const defaultTopK = 3

type Retriever struct {
	index    vectorindex.Index
	embedder embedding.Embedder
	topK     int
}

func New(index vectorindex.Index, embedder embedding.Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{index: index, embedder: embedder, topK: topK}
}

// Retrieve embeds the question and returns the top-k passages in rank
// order, both as the separator-joined context string handed to the
// prompt and as the raw hits for source display.
func (r *Retriever) Retrieve(ctx context.Context, question string) (string, []models.ScoredPassage, error) {
	queryVector, err := embedding.EmbedQuery(ctx, r.embedder, question)
	if err != nil {
		return "", nil, err
	}
	hits, err := r.index.Search(ctx, queryVector, r.topK)
	if err != nil {
		return "", nil, err
	}

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Passage.Content
	}
	return strings.Join(parts, models.ContextSeparator), hits, nil
}
