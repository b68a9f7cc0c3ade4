package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/edukit/coachai-go/internal/logging"
	"github.com/edukit/coachai-go/internal/rag"
)

// Retry defaults. Three attempts with a doubling delay rides out the brief
// rate-limit and connection blips embedding backends throw under batch load.
const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = time.Second
)

// Retrying wraps a rag.Embedder with bounded exponential backoff. It retries
// every error except context cancellation; the wrapped embedder already folds
// HTTP status handling into its error returns.
type Retrying struct {
	// inner is the embedder performing the actual requests.
	inner rag.Embedder
	// maxAttempts is the total number of tries, including the first.
	maxAttempts int
	// initialDelay is the sleep before the second attempt; it doubles after
	// each failure.
	initialDelay time.Duration
}

// WithRetry wraps inner with the default retry policy.
func WithRetry(inner rag.Embedder) *Retrying {
	return &Retrying{
		inner:        inner,
		maxAttempts:  defaultMaxAttempts,
		initialDelay: defaultInitialDelay,
	}
}

// WithRetryPolicy wraps inner with an explicit attempt count and initial
// delay. Non-positive values fall back to the defaults.
func WithRetryPolicy(inner rag.Embedder, maxAttempts int, initialDelay time.Duration) *Retrying {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}
	return &Retrying{inner: inner, maxAttempts: maxAttempts, initialDelay: initialDelay}
}

// Embed delegates to the wrapped embedder, retrying failures with doubling
// delays until the attempt budget is spent or ctx is done. The last error is
// returned annotated with the attempt count.
func (r *Retrying) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := logging.FromContext(ctx)
	delay := r.initialDelay

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		embeddings, err := r.inner.Embed(ctx, texts)
		if err == nil {
			return embeddings, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == r.maxAttempts {
			break
		}

		log.Warn("embedding attempt failed, retrying",
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}

	return nil, fmt.Errorf("embedder: all %d attempts failed: %w", r.maxAttempts, lastErr)
}
