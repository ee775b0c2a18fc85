package provider

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig controls exponential backoff for retryable provider
// failures.
type RetryConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	JitterFrac   float64
	MaxAttempts  int
}

// DefaultRetryConfig returns a ~1s initial delay, multiplier 2, jitter
// +/-25%, up to 5 attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialDelay: time.Second,
		Multiplier:   2.0,
		JitterFrac:   0.25,
		MaxAttempts:  5,
	}
}

// Backoff computes the delay before retry attempt n (0-indexed).
func (r RetryConfig) Backoff(attempt int) time.Duration {
	delay := float64(r.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= r.Multiplier
	}
	jitter := delay * r.JitterFrac * (2*rand.Float64() - 1)
	return time.Duration(delay + jitter)
}

// WithRetry calls fn, retrying on Retryable errors with exponential
// backoff, for at most cfg.MaxAttempts calls in total. Non-retryable errors and context
// cancellation return immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() (GenerationResponse, error)) (GenerationResponse, error) {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !Retryable(err) {
			return GenerationResponse{}, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return GenerationResponse{}, ctx.Err()
		case <-time.After(cfg.Backoff(attempt)):
		}
	}
	return GenerationResponse{}, lastErr
}
