// Package vectorindex stores passage vectors and answers
// nearest-neighbor queries. An index is built wholesale per uploaded
// document and is read-only afterwards.
package vectorindex

import (
	"context"
	"fmt"
	"sort"

	"docchat/internal/config"
	"docchat/internal/models"
)

// Index is built once per document and never updated in place. Search
// returns the k nearest passages, highest similarity first, ties
// broken by passage sequence position (earlier wins). k is clamped to
// the number of stored passages.
type Index interface {
	Build(ctx context.Context, passages []models.Passage, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, k int) ([]models.ScoredPassage, error)
	Len() int
}

// sortScored orders hits highest similarity first, ties broken by
// earlier sequence position. Both backends rank through this so the
// contract holds regardless of backend ordering quirks.
func sortScored(scored []models.ScoredPassage) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Passage.Seq < scored[j].Passage.Seq
	})
}

// New selects the configured backend.
func New(cfg *config.IndexConfig) (Index, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryIndex(), nil
	case "postgres":
		return NewPostgresIndex(cfg)
	default:
		return nil, fmt.Errorf("unknown index backend: %q", cfg.Backend)
	}
}
