package numbering

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/gescom-app/gescom/internal/shared"
)

// DefaultMaxAttempts bounds the allocate+persist retry loop.
const DefaultMaxAttempts = 5

const baseBackoff = 100 * time.Millisecond

// WithRetry runs fn, retrying when retryable(err) reports a transient
// conflict (in practice a unique violation on a generated code). Each
// retry waits a short jittered backoff. Exhausting the budget wraps
// shared.ErrSequenceExhausted.
func WithRetry(ctx context.Context, attempts int, retryable func(error) bool, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := baseBackoff + time.Duration(rand.Int63n(int64(baseBackoff)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: after %d attempts: %v", shared.ErrSequenceExhausted, attempts, lastErr)
}
