// Package llmservice calls the generation backend with a rendered
// prompt. Calls carry a bounded wait; failures surface once and are
// never retried here.
package llmservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docchat/internal/config"
	"docchat/internal/models"
)

// Generator produces answer text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var thinkRe = regexp.MustCompile(models.ThinkTag)

// LLM is a Generator backed by a langchaingo model.
type LLM struct {
	model   llms.Model
	timeout time.Duration
}

func New(cfg *config.LLMConfig) (*LLM, error) {
	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case "ollama", "":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		err = fmt.Errorf("unknown chat provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewWithModel(model, cfg.TimeoutSeconds), nil
}

// NewWithModel wraps an existing model; used by tests and by the
// contextual-enrichment path which reuses the chat model.
func NewWithModel(model llms.Model, timeoutSeconds int) *LLM {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return &LLM{model: model, timeout: time.Duration(timeoutSeconds) * time.Second}
}

func (l *LLM) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	answer, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", models.ErrGenerationTimeout, l.timeout, err)
		}
		return "", fmt.Errorf("%w: %v", models.ErrGenerationBackend, err)
	}
	// deepseek-style models interleave reasoning in <think> tags.
	answer = thinkRe.ReplaceAllString(answer, "")
	return strings.TrimSpace(answer), nil
}
