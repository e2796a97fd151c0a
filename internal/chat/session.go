// Package chat sequences question/answer turns against one built
// pipeline and owns the transcript shown to the presentation layer.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"docchat/internal/models"
	"docchat/internal/rag"
)

// Session holds the transcript and the single owned pipeline. One
// session serves one uploaded document at a time; the mutex keeps
// submissions single-flight.
type Session struct {
	mu         sync.Mutex
	pipeline   *rag.Pipeline
	transcript []models.Turn
}

func NewSession(pipeline *rag.Pipeline) *Session {
	return &Session{pipeline: pipeline}
}

// Upload ingests a new document. The transcript survives re-uploads;
// the index does not.
func (s *Session) Upload(ctx context.Context, data []byte, format string) error {
	return s.pipeline.Build(ctx, data, format)
}

func (s *Session) State() rag.State {
	return s.pipeline.State()
}

// Submit records the question, asks the pipeline, and records the
// answer. The user turn is appended before generation so the question
// stays visible when generation fails; a failed turn appends no
// assistant turn and leaves prior transcript state untouched.
func (s *Session) Submit(ctx context.Context, question string) (*rag.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.ErrEmptyQuestion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, models.Turn{
		Role:    models.RoleUser,
		Content: question,
		At:      time.Now(),
	})

	answer, err := s.pipeline.Answer(ctx, question)
	if err != nil {
		return nil, err
	}

	s.transcript = append(s.transcript, models.Turn{
		Role:    models.RoleAssistant,
		Content: answer.Content,
		At:      time.Now(),
	})
	return answer, nil
}

// Transcript returns an ordered read-only view of the turns.
func (s *Session) Transcript() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}
