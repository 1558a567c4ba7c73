package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry policy for external capability calls: every attempt runs under its
// own deadline, and the retry budget is small and bounded so a dead provider
// fails fast instead of hanging the request.

type retryGenerator struct {
	next     IGenerator
	attempts uint64
	timeout  time.Duration
}

func WithRetry(next IGenerator, retries int, timeout time.Duration) IGenerator {
	if next == nil || retries < 0 {
		return next
	}
	return &retryGenerator{next: next, attempts: uint64(retries), timeout: timeout}
}

func (g *retryGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var result string
	op := func() error {
		attemptCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		res, err := g.next.Generate(attemptCtx, prompt)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				// not configured, retrying cannot help
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.attempts), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return result, nil
}

type retryEmbedder struct {
	next     IEmbedder
	attempts uint64
	timeout  time.Duration
}

func WithEmbedRetry(next IEmbedder, retries int, timeout time.Duration) IEmbedder {
	if next == nil || retries < 0 {
		return next
	}
	return &retryEmbedder{next: next, attempts: uint64(retries), timeout: timeout}
}

func (e *retryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var result []float32
	op := func() error {
		attemptCtx := ctx
		if e.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		res, err := e.next.Embed(attemptCtx, text, taskType)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.attempts), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *retryEmbedder) ModelName() string {
	return e.next.ModelName()
}
