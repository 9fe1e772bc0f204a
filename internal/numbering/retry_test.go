package numbering

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gescom-app/gescom/internal/shared"
)

var errDuplicate = errors.New("duplicate key value violates unique constraint")

func isDuplicate(err error) bool {
	return errors.Is(err, errDuplicate)
}

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 5, isDuplicate, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversFromTransientCollision(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 5, isDuplicate, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errDuplicate
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustionWrapsSequenceExhausted(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, isDuplicate, func(ctx context.Context) error {
		calls++
		return errDuplicate
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrSequenceExhausted)
	assert.Equal(t, 3, calls)
}

func TestWithRetryNonRetryableReturnsImmediately(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetry(context.Background(), 5, isDuplicate, func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, shared.ErrSequenceExhausted)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, 5, isDuplicate, func(ctx context.Context) error {
		calls++
		cancel()
		return errDuplicate
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryDefaultsAttemptBudget(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 0, isDuplicate, func(ctx context.Context) error {
		calls++
		return errDuplicate
	})
	assert.ErrorIs(t, err, shared.ErrSequenceExhausted)
	assert.Equal(t, DefaultMaxAttempts, calls)
}
