package vectorindex

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docchat/internal/config"
	"docchat/internal/models"
)

type pgPassage struct {
	bun.BaseModel `bun:"table:passages,alias:p"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Content       string    `bun:"content,notnull"`
	Page          int       `bun:"page,notnull"`
	Seq           int       `bun:"seq,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
}

// PostgresIndex stores passage vectors in a pgvector table. The table
// is dropped and recreated on every build; nothing survives a
// re-upload.
type PostgresIndex struct {
	db    *bun.DB
	count int
}

func NewPostgresIndex(cfg *config.IndexConfig) (*PostgresIndex, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres index requires a dsn")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PostgresIndex{db: db}, nil
}

func (p *PostgresIndex) Build(ctx context.Context, passages []models.Passage, vectors [][]float32) error {
	if len(passages) == 0 {
		return fmt.Errorf("no passages to index")
	}
	if len(passages) != len(vectors) {
		return fmt.Errorf("passage/vector count mismatch: %d vs %d", len(passages), len(vectors))
	}

	if _, err := p.db.NewDropTable().Model((*pgPassage)(nil)).IfExists().Exec(ctx); err != nil {
		return err
	}
	if _, err := p.db.NewCreateTable().Model((*pgPassage)(nil)).Exec(ctx); err != nil {
		return err
	}

	rows := make([]pgPassage, len(passages))
	for i, pg := range passages {
		rows[i] = pgPassage{
			Content:   pg.Content,
			Page:      pg.Page,
			Seq:       pg.Seq,
			Embedding: vectors[i],
		}
	}
	if _, err := p.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return err
	}
	p.count = len(rows)
	return nil
}

func (p *PostgresIndex) Search(ctx context.Context, queryVector []float32, k int) ([]models.ScoredPassage, error) {
	if p.count == 0 {
		return nil, fmt.Errorf("index not built")
	}
	if k > p.count {
		k = p.count
	}
	if k <= 0 {
		return nil, nil
	}

	// <=> is pgvector's cosine distance operator, so the candidate set
	// matches the cosine scores reported back to the caller.
	var rows []pgPassage
	err := p.db.NewSelect().
		Model(&rows).
		Column("content", "page", "seq", "embedding").
		OrderExpr("embedding <=> ?", queryVector).
		OrderExpr("seq ASC").
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]models.ScoredPassage, len(rows))
	for i, row := range rows {
		scored[i] = models.ScoredPassage{
			Passage: models.Passage{Content: row.Content, Page: row.Page, Seq: row.Seq},
			Score:   cosine(row.Embedding, queryVector),
		}
	}
	sortScored(scored)
	return scored, nil
}

func (p *PostgresIndex) Len() int { return p.count }

func (p *PostgresIndex) Close() error { return p.db.Close() }

func cosine(a, b []float32) float32 {
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
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
