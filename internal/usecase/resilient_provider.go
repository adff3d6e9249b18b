package usecase

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"policychat/internal/domain/entity"
	"policychat/internal/domain/repository"
)

// ResilientProvider wraps a generation provider with a per-call
// timeout, retries with jittered backoff, and a one-shot fallback
// model. A timeout counts as a generation failure like any other.
type ResilientProvider struct {
	primary    repository.AnswerProvider
	fallback   repository.AnswerProvider // may be nil
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
}

func NewResilientProvider(primary, fallback repository.AnswerProvider, timeout time.Duration) *ResilientProvider {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &ResilientProvider{
		primary:    primary,
		fallback:   fallback,
		maxRetries: 2, // total 3 attempts for primary
		baseDelay:  500 * time.Millisecond,
		timeout:    timeout,
	}
}

func (r *ResilientProvider) Generate(ctx context.Context, prompt string) (string, error) {
	// Scoped context so one slow request doesn't hang the session.
	resCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	answer, err := r.executeWithRetry(resCtx, r.primary, prompt)
	if err == nil {
		return answer, nil
	}

	if r.fallback == nil {
		return "", fmt.Errorf("%w: %v", entity.ErrGenerationFailure, err)
	}

	log.Printf("[RELIABILITY] primary exhausted, switching to fallback: %v", err)
	answer, err = r.fallback.Generate(resCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: both primary and fallback failed: %v", entity.ErrGenerationFailure, err)
	}
	return answer, nil
}

func (r *ResilientProvider) executeWithRetry(ctx context.Context, p repository.AnswerProvider, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		answer, err := p.Generate(ctx, prompt)
		if err == nil {
			return answer, nil
		}
		lastErr = err

		if !r.isRetryable(err) || attempt == r.maxRetries {
			break
		}

		wait := r.calculateBackoff(attempt)
		select {
		case <-time.After(wait):
			continue
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func (r *ResilientProvider) isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	// Retry on rate limits (429) and server errors (5xx)
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "deadline")
}

func (r *ResilientProvider) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.baseDelay) * float64(int(1)<<attempt)
	jitter := (rand.Float64() * 0.2) * backoff // 20% jitter
	return time.Duration(backoff + jitter)
}
