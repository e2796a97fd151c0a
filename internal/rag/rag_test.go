package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/vectorindex"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vec := make([]float32, 4)
	lower := strings.ToLower(text)
	for word, axis := range map[string]int{"sky": 0, "blue": 0, "color": 0, "grass": 1, "green": 1} {
		if strings.Contains(lower, word) {
			vec[axis]++
		}
	}
	// unknown text still gets a stable non-zero direction
	vec[3] = 0.01
	return vec, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := f.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type fakeGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestPipeline(t *testing.T, emb *fakeEmbedder, gen *fakeGenerator) *Pipeline {
	t.Helper()
	cfg := config.Default()
	p, err := New(cfg, emb, gen, vectorindex.NewMemoryIndex())
	if err != nil {
		t.Fatalf("new pipeline failed: %v", err)
	}
	return p
}

const testDoc = "The sky is blue. Grass is green."

func TestBuildReachesReady(t *testing.T) {
	p := newTestPipeline(t, &fakeEmbedder{}, &fakeGenerator{answer: "ok"})
	if p.State() != StateUninitialized {
		t.Fatalf("fresh pipeline state = %s", p.State())
	}
	if err := p.Build(context.Background(), []byte(testDoc), "txt"); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if p.State() != StateReady {
		t.Errorf("state after build = %s", p.State())
	}
	if p.index.Len() < 1 {
		t.Errorf("index holds %d passages", p.index.Len())
	}
}

func TestAnswerIncludesRetrievedContext(t *testing.T) {
	gen := &fakeGenerator{answer: "It is blue."}
	p := newTestPipeline(t, &fakeEmbedder{}, gen)
	if err := p.Build(context.Background(), []byte(testDoc), "txt"); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	answer, err := p.Answer(context.Background(), "What color is the sky?")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer.Content != "It is blue." {
		t.Errorf("unexpected answer: %q", answer.Content)
	}
	if len(answer.Sources) == 0 {
		t.Error("expected sources")
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "The sky is blue.") {
		t.Errorf("prompt missing retrieved sentence: %q", gen.prompts)
	}
	if !strings.Contains(gen.prompts[0], "What color is the sky?") {
		t.Errorf("prompt missing question: %q", gen.prompts[0])
	}
}

func TestAnswerRequiresReady(t *testing.T) {
	gen := &fakeGenerator{answer: "never"}
	p := newTestPipeline(t, &fakeEmbedder{}, gen)

	_, err := p.Answer(context.Background(), "hello?")
	if !errors.Is(err, models.ErrPipelineNotReady) {
		t.Fatalf("expected ErrPipelineNotReady, got %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Error("generator invoked while not ready")
	}
}

func TestBuildUnsupportedFormatLeavesStateUntouched(t *testing.T) {
	emb := &fakeEmbedder{}
	p := newTestPipeline(t, emb, &fakeGenerator{})

	err := p.Build(context.Background(), []byte("binary junk"), "exe")
	if !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if p.State() != StateUninitialized {
		t.Errorf("state changed to %s", p.State())
	}
	if emb.calls != 0 {
		t.Error("embedder called for unsupported format")
	}
}

func TestBuildFailureMarksFailedThenRecovers(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("backend down")}
	gen := &fakeGenerator{answer: "ok"}
	p := newTestPipeline(t, emb, gen)

	err := p.Build(context.Background(), []byte(testDoc), "txt")
	if !errors.Is(err, models.ErrEmbeddingBackend) {
		t.Fatalf("expected ErrEmbeddingBackend, got %v", err)
	}
	if p.State() != StateFailed {
		t.Fatalf("state after failed build = %s", p.State())
	}
	if _, err := p.Answer(context.Background(), "q"); !errors.Is(err, models.ErrPipelineNotReady) {
		t.Fatalf("expected ErrPipelineNotReady after failed build, got %v", err)
	}

	// re-upload restarts cleanly
	emb.err = nil
	if err := p.Build(context.Background(), []byte(testDoc), "txt"); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if p.State() != StateReady {
		t.Errorf("state after rebuild = %s", p.State())
	}
}

func TestGenerationFailureIsTurnScoped(t *testing.T) {
	gen := &fakeGenerator{err: models.ErrGenerationBackend}
	p := newTestPipeline(t, &fakeEmbedder{}, gen)
	if err := p.Build(context.Background(), []byte(testDoc), "txt"); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	_, err := p.Answer(context.Background(), "q")
	if !errors.Is(err, models.ErrGenerationBackend) {
		t.Fatalf("expected ErrGenerationBackend, got %v", err)
	}
	if p.State() != StateReady {
		t.Errorf("generation failure changed state to %s", p.State())
	}

	// immediate retry works once the backend is back
	gen.err = nil
	gen.answer = "recovered"
	answer, err := p.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if answer.Content != "recovered" {
		t.Errorf("unexpected answer: %q", answer.Content)
	}
}

func TestBuildContextualSituatesPassages(t *testing.T) {
	gen := &fakeGenerator{answer: "situating context"}
	emb := &fakeEmbedder{}
	cfg := config.Default()
	cfg.RAG.Contextual = true
	p, err := New(cfg, emb, gen, vectorindex.NewMemoryIndex())
	if err != nil {
		t.Fatalf("new pipeline failed: %v", err)
	}
	if err := p.Build(context.Background(), []byte(testDoc), "txt"); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(gen.prompts) == 0 {
		t.Fatal("expected situating prompts during build")
	}
	if !strings.Contains(gen.prompts[0], "The sky is blue.") {
		t.Errorf("situating prompt missing document text: %q", gen.prompts[0])
	}
}
