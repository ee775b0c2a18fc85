package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryableClassification(t *testing.T) {
	if !Retryable(ErrRateLimit) {
		t.Error("expected ErrRateLimit to be retryable")
	}
	if !Retryable(ErrTransient) {
		t.Error("expected ErrTransient to be retryable")
	}
	if Retryable(ErrAuth) {
		t.Error("expected ErrAuth not to be retryable")
	}
	if Retryable(ErrMalformed) {
		t.Error("expected ErrMalformed not to be retryable")
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Millisecond, Multiplier: 1, JitterFrac: 0, MaxAttempts: 3}
	attempts := 0
	resp, err := WithRetry(context.Background(), cfg, func() (GenerationResponse, error) {
		attempts++
		if attempts < 3 {
			return GenerationResponse{}, ErrTransient
		}
		return GenerationResponse{Content: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected ok, got %q", resp.Content)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryStopsImmediatelyOnFatalError(t *testing.T) {
	cfg := DefaultRetryConfig()
	attempts := 0
	_, err := WithRetry(context.Background(), cfg, func() (GenerationResponse, error) {
		attempts++
		return GenerationResponse{}, ErrAuth
	})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a fatal error, got %d", attempts)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Millisecond, Multiplier: 1, JitterFrac: 0, MaxAttempts: 3}
	attempts := 0
	_, err := WithRetry(context.Background(), cfg, func() (GenerationResponse, error) {
		attempts++
		return GenerationResponse{}, ErrRateLimit
	})
	if !errors.Is(err, ErrRateLimit) {
		t.Fatalf("expected ErrRateLimit, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}
