// Package prompt renders the instruction template sent to the chat
// model. Pure string substitution, no side effects.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"docchat/internal/models"
)

var requiredSlots = []string{"context", "question"}

// Builder renders a fixed template with the retrieved context and the
// user question substituted.
type Builder struct {
	template prompts.PromptTemplate
}

// New validates the template up front: both slots must be present, so
// a bad custom template fails at construction and not per turn. An
// empty template selects the default.
func New(template string) (*Builder, error) {
	if template == "" {
		template = models.AnswerPromptTemplate
	}
	for _, slot := range requiredSlots {
		if !strings.Contains(template, "{{."+slot+"}}") {
			return nil, fmt.Errorf("%w: {{.%s}}", models.ErrTemplate, slot)
		}
	}
	return &Builder{
		template: prompts.NewPromptTemplate(template, requiredSlots),
	}, nil
}

// Render substitutes the two slots and returns the prompt string.
func (b *Builder) Render(contextText, question string) (string, error) {
	rendered, err := b.template.Format(map[string]any{
		"context":  contextText,
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrTemplate, err)
	}
	return rendered, nil
}
