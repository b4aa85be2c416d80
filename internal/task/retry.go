package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrPermanent marks a task failure that retrying cannot fix, such as a
// candidate failing a business precondition or an entity that no longer
// exists. The runner fails the task immediately instead of backing off.
var ErrPermanent = errors.New("permanent task failure")

// Permanent wraps err so the retry loop stops on it. A nil err returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsPermanent reports whether err is marked as non-retryable.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// RetryConfig controls the backoff applied to failing task executions.
type RetryConfig struct {
	// MaxAttempts is the total number of executions, first try included.
	// Values below 1 are treated as 1 (no retries).
	MaxAttempts int

	// BaseDelay is the initial backoff interval.
	BaseDelay time.Duration

	// MaxDelay caps the exponentially growing interval.
	MaxDelay time.Duration

	// Jitter is the random spread added to each interval so parallel
	// failures don't retry in lockstep.
	Jitter time.Duration
}

// DefaultRetryConfig returns a RetryConfig with reasonable defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      500 * time.Millisecond,
	}
}

// ExecuteWithRetry runs fn with exponential backoff per cfg. Errors are
// retried by default; errors wrapped with Permanent stop the loop
// immediately and are returned unwrapped of retry bookkeeping.
func ExecuteWithRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}

	backoff := retry.NewExponential(cfg.BaseDelay)
	if cfg.Jitter > 0 {
		backoff = retry.WithJitter(cfg.Jitter, backoff)
	}
	if cfg.MaxDelay > 0 {
		backoff = retry.WithCappedDuration(cfg.MaxDelay, backoff)
	}
	backoff = retry.WithMaxRetries(uint64(cfg.MaxAttempts-1), backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}
