// Package provider defines the ports the planner talks to and shared helpers
// for the HTTP adapters that implement them.
//
// Adapters live in subpackages (gemini, unsplash, pexels, wikipedia). Each
// one is constructed with a credential and functional options, and each one
// reports "not configured" rather than failing when its credential is blank.
package provider

import (
	"context"

	"google.golang.org/genai"
)

// GenerationRequest is a single structured-output call.
type GenerationRequest struct {
	Prompt      string
	Schema      *genai.Schema
	Temperature float32
}

// Generator produces raw structured text from a prompt.
//
// Implementations return *domain.GenerationError for upstream failures and
// the context's own error, unwrapped, when ctx is cancelled.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// ImageSearcher finds one landscape photo for a free-text query.
//
// An empty string with a nil error means "nothing found". Errors are for
// transport or upstream failures and are never fatal to the pipeline.
type ImageSearcher interface {
	Name() string
	Configured() bool
	SearchImage(ctx context.Context, query string) (string, error)
}

// SummaryLookup finds a representative image for a well-known place.
type SummaryLookup interface {
	Name() string
	Configured() bool
	LookupImage(ctx context.Context, title string) (string, error)
}
