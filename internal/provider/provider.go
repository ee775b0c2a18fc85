// Package provider defines the polymorphic LLM capability the pipeline
// driver calls, and the failure taxonomy callers use to decide whether
// to retry, abort the prompt, or abort the run.
package provider

import (
	"context"
	"errors"
)

// GenerationRequest is the uniform request contract across vendors.
type GenerationRequest struct {
	SystemPrompt string
	Context      string
	UserPrompt   string
	Model        string
	Temperature  float64
	Seed         *uint64
}

// GenerationResponse is the uniform response contract across vendors.
type GenerationResponse struct {
	Content   string
	TokensIn  uint64
	TokensOut uint64
	Model     string
}

// Provider is the capability every LLM backend implements. New
// providers require nothing else in the core to change.
type Provider interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error)
	Name() string
}

// Failure classes. Each one determines whether the pipeline driver
// retries, aborts the current prompt, or aborts the whole run.
var (
	// ErrAuth is permanent: it aborts the whole run.
	ErrAuth = errors.New("provider authentication failed")
	// ErrRateLimit is retryable with backoff.
	ErrRateLimit = errors.New("provider rate limit")
	// ErrTransient is retryable with backoff (network or 5xx).
	ErrTransient = errors.New("provider transient error")
	// ErrMalformed is permanent for the current prompt only.
	ErrMalformed = errors.New("provider returned malformed response")
	// ErrEmpty is permanent for the current prompt only.
	ErrEmpty = errors.New("provider returned empty response")
)

// Retryable reports whether err should be retried with backoff rather
// than failing the prompt or the run outright.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTransient)
}
