package vectorindex

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"docchat/internal/helper"
	"docchat/internal/models"
)

const collectionName = "document"

// MemoryIndex keeps the index in process memory, backed by a
// chromem-go collection.
type MemoryIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	count      int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{db: chromem.NewDB()}
}

// Build replaces any previous collection wholesale.
func (m *MemoryIndex) Build(ctx context.Context, passages []models.Passage, vectors [][]float32) error {
	if len(passages) == 0 {
		return fmt.Errorf("no passages to index")
	}
	if len(passages) != len(vectors) {
		return fmt.Errorf("passage/vector count mismatch: %d vs %d", len(passages), len(vectors))
	}

	// DeleteCollection is a no-op when the collection does not exist.
	if err := m.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("failed to reset collection: %v", err)
	}
	collection, err := m.db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %v", err)
	}

	buildID, err := helper.GenerateUUID()
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s-%d", buildID, p.Seq),
			Content: p.Content,
			Metadata: map[string]string{
				"page": strconv.Itoa(p.Page),
				"seq":  strconv.Itoa(p.Seq),
			},
			Embedding: vectors[i],
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	m.collection = collection
	m.count = len(docs)
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, queryVector []float32, k int) ([]models.ScoredPassage, error) {
	if m.collection == nil {
		return nil, fmt.Errorf("index not built")
	}
	if k > m.count {
		k = m.count
	}
	if k <= 0 {
		return nil, nil
	}

	// Query all stored documents, not just k: chromem leaves the order
	// among equal similarities unspecified, so a tie straddling the k
	// boundary would otherwise drop the earliest passage. Rank the
	// full set here, then truncate.
	results, err := m.collection.QueryEmbedding(ctx, queryVector, m.count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	scored := make([]models.ScoredPassage, len(results))
	for i, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page"])
		seq, _ := strconv.Atoi(r.Metadata["seq"])
		scored[i] = models.ScoredPassage{
			Passage: models.Passage{Content: r.Content, Page: page, Seq: seq},
			Score:   r.Similarity,
		}
	}
	sortScored(scored)
	return scored[:k], nil
}

func (m *MemoryIndex) Len() int { return m.count }
