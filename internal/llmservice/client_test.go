package llmservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"docchat/internal/models"
)

type fakeModel struct {
	resp  string
	err   error
	delay time.Duration
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.resp}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.resp, f.err
}

func TestGenerateReturnsAnswer(t *testing.T) {
	g := NewWithModel(&fakeModel{resp: "The sky is blue."}, 5)
	answer, err := g.Generate(context.Background(), "What color is the sky?")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if answer != "The sky is blue." {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestGenerateStripsThinkTags(t *testing.T) {
	g := NewWithModel(&fakeModel{resp: "<think>reasoning\nhere</think>\nFinal answer."}, 5)
	answer, err := g.Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if answer != "Final answer." {
		t.Errorf("think tags not stripped: %q", answer)
	}
}

func TestGenerateBackendError(t *testing.T) {
	g := NewWithModel(&fakeModel{err: errors.New("connection refused")}, 5)
	_, err := g.Generate(context.Background(), "q")
	if !errors.Is(err, models.ErrGenerationBackend) {
		t.Fatalf("expected ErrGenerationBackend, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	g := NewWithModel(&fakeModel{resp: "late", delay: time.Second}, 1)
	g.timeout = 10 * time.Millisecond
	_, err := g.Generate(context.Background(), "q")
	if !errors.Is(err, models.ErrGenerationTimeout) {
		t.Fatalf("expected ErrGenerationTimeout, got %v", err)
	}
}
