package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Jitter:      0,
	}
}

func TestExecuteWithRetry_SucceedsFirstTry(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := ExecuteWithRetry(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := ExecuteWithRetry(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient failure")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	attempts := 0
	wantErr := errors.New("still broken")
	err := ExecuteWithRetry(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		attempts++
		return wantErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_PermanentStopsImmediately(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := ExecuteWithRetry(context.Background(), fastRetryConfig(5), func(ctx context.Context) error {
		attempts++
		return Permanent(errors.New("candidate does not exist"))
	})

	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, attempts, "permanent errors must not be retried")
}

func TestPermanent_NilStaysNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(nil))
}

func TestExecuteWithRetry_SingleAttemptFloor(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := ExecuteWithRetry(context.Background(), fastRetryConfig(0), func(ctx context.Context) error {
		attempts++
		return errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
