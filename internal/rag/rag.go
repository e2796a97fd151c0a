// Package rag wires the ingestion-to-answer pipeline: parse, chunk,
// embed and index once per uploaded document, then retrieve, render
// and generate once per question.
package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/llmservice"
	"docchat/internal/models"
	"docchat/internal/parser"
	"docchat/internal/prompt"
	"docchat/internal/retriever"
	"docchat/internal/vectorindex"
)

// State is the pipeline lifecycle. Answer is only accepted in
// StateReady.
type State int

const (
	StateUninitialized State = iota
	StateBuilding
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Answer is a generated reply plus the passages it was grounded on.
type Answer struct {
	Content string
	Sources []models.ScoredPassage
}

// Pipeline owns the index for exactly one document. Build and Answer
// are single-flight: the mutex serializes them, so a question waits
// for the build (or the prior question) to finish.
type Pipeline struct {
	mu        sync.Mutex
	state     State
	cfg       *config.Config
	embedder  embedding.Embedder
	generator llmservice.Generator
	index     vectorindex.Index
	builder   *prompt.Builder
	retriever *retriever.Retriever
}

func New(cfg *config.Config, embedder embedding.Embedder, generator llmservice.Generator, index vectorindex.Index) (*Pipeline, error) {
	builder, err := prompt.New(cfg.RAG.PromptTemplate)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:       cfg,
		embedder:  embedder,
		generator: generator,
		index:     index,
		builder:   builder,
	}, nil
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Build ingests one document and makes the pipeline queryable. An
// unsupported format is rejected before any work starts and leaves
// the state untouched; any failure after that marks the pipeline
// failed and discards the index. A later Build restarts cleanly.
func (p *Pipeline) Build(ctx context.Context, data []byte, format string) error {
	if !parser.Supported(format) {
		return fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, format)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateBuilding
	p.retriever = nil

	if err := p.build(ctx, data, format); err != nil {
		p.state = StateFailed
		log.Error().Err(err).Msg("Pipeline build failed")
		return err
	}
	p.state = StateReady
	return nil
}

func (p *Pipeline) build(ctx context.Context, data []byte, format string) error {
	pages, err := parser.Load(data, format)
	if err != nil {
		return err
	}
	log.Debug().Int("pages", len(pages)).Str("format", format).Msg("Document loaded")

	c := chunker.New(p.embedder, p.cfg.RAG.BreakpointPercentile)
	passages, err := c.Split(ctx, pages)
	if err != nil {
		return err
	}
	log.Debug().Int("passages", len(passages)).Msg("Document chunked")

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Content
	}
	if p.cfg.RAG.Contextual {
		texts, err = p.situate(ctx, pages, texts)
		if err != nil {
			return err
		}
	}

	vectors, err := embedding.EmbedBatch(ctx, p.embedder, texts)
	if err != nil {
		return err
	}
	if err := p.index.Build(ctx, passages, vectors); err != nil {
		return err
	}

	p.retriever = retriever.New(p.index, p.embedder, p.cfg.RAG.TopK)
	log.Info().Int("passages", len(passages)).Msg("Index ready")
	return nil
}

// situate prefixes each passage with a model-written summary of where
// it sits in the document, improving retrieval of terse chunks. Only
// the embedded text changes; stored passages stay verbatim.
func (p *Pipeline) situate(ctx context.Context, pages []models.PageText, texts []string) ([]string, error) {
	var doc strings.Builder
	for _, page := range pages {
		doc.WriteString(page.Text)
		doc.WriteString("\n")
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		situated, err := p.generator.Generate(ctx, fmt.Sprintf(models.SituatePromptTemplate, doc.String(), text))
		if err != nil {
			return nil, err
		}
		out[i] = situated + "\n" + text
	}
	return out, nil
}

// Answer retrieves context for the question and generates a reply.
// Generation failures leave the index and state intact; the caller may
// retry immediately.
func (p *Pipeline) Answer(ctx context.Context, question string) (*Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateReady {
		return nil, fmt.Errorf("%w: state is %s", models.ErrPipelineNotReady, p.state)
	}

	contextText, hits, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	rendered, err := p.builder.Render(contextText, question)
	if err != nil {
		return nil, err
	}
	content, err := p.generator.Generate(ctx, rendered)
	if err != nil {
		return nil, err
	}
	return &Answer{Content: content, Sources: hits}, nil
}
