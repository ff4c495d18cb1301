package nl2sql

import (
	"context"
	"errors"
)

// ErrServiceUnavailable wraps any failure of the generation call so callers
// can map it without depending on provider error types.
var ErrServiceUnavailable = errors.New("language model service unavailable")

type Request struct {
	Question string
	Schema   string
	Memory   string
}

type RefineRequest struct {
	Question  string
	Schema    string
	FailedSQL string
	ErrorText string
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Resolver turns a natural-language question into a single clean SQL
// statement against the session schema. Refine is the one-shot correction
// pass fed with the failing statement and the engine's diagnostic.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (Result, error)
	Refine(ctx context.Context, req RefineRequest) (Result, error)
}

// Generator is the raw text pass-through used for summaries and result
// interpretation. It applies no SQL post-processing.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
