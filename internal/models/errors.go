package models

import "errors"

// Ingestion errors abort the build and mark the session failed.
var (
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrUnreadableDocument = errors.New("document is not readable")
	ErrEmptyDocument      = errors.New("document contains no text")
)

// Backend errors. None of these are retried internally.
var (
	ErrEmbeddingBackend  = errors.New("embedding backend error")
	ErrGenerationBackend = errors.New("generation backend error")
	ErrGenerationTimeout = errors.New("generation backend timed out")
)

// Session state errors.
var (
	ErrPipelineNotReady = errors.New("pipeline is not ready")
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrTemplate         = errors.New("prompt template is missing a required slot")
)
