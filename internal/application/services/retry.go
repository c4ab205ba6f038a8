package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultMaxAttempts = 3

// RetryPolicy runs an operation up to MaxAttempts times, waiting Delay
// between attempts. The caller blocks until the terminal outcome.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy retries immediately, three attempts in total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultMaxAttempts}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

// Do calls fn with a 1-based attempt number until it succeeds, the cap is
// reached or ctx is done. The last failure is returned wrapped.
func (p RetryPolicy) Do(ctx context.Context, logger *logrus.Logger, op string, fn func(attempt int) error) error {
	maxAttempts := p.attempts()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%s: %w (last error: %v)", op, err, lastErr)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"operation":    op,
				"attempt":      attempt,
				"max_attempts": maxAttempts,
			}).WithError(lastErr).Warn("attempt failed")
		}

		if attempt < maxAttempts && p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: %w (last error: %v)", op, ctx.Err(), lastErr)
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, maxAttempts, lastErr)
}
