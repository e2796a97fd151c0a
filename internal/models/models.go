package models

import "time"

// PageText is one page of extracted text, in document order.
type PageText struct {
	Page int
	Text string
}

// Passage is a semantically coherent chunk of document text.
// Seq is its position within the document.
type Passage struct {
	Content string
	Page    int
	Seq     int
}

// ScoredPassage is a retrieval hit, highest similarity first.
type ScoredPassage struct {
	Passage Passage
	Score   float32
}

// Role tags a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry. Never mutated after creation.
type Turn struct {
	Role    Role
	Content string
	At      time.Time
}
