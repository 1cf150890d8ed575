// Package retry wraps a unit of work in bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/holoreel/video-sync/internal/config"
	"github.com/holoreel/video-sync/internal/log"
)

// Executor retries a failing unit of work according to a fixed policy. It
// never commits partial work itself; that is the callee's contract.
type Executor struct {
	policy config.RetryConfig
}

// NewExecutor creates an executor for the given policy.
func NewExecutor(policy config.RetryConfig) *Executor {
	return &Executor{policy: policy}
}

// Do runs fn up to MaxRetries+1 times. The delay before retry n is
// min(InitialDelay × Multiplier^(n-1), MaxDelay). Waits are interruptible by
// the context; on cancellation the context error is returned. On exhaustion
// the final error from fn is propagated unchanged.
func (e *Executor) Do(ctx context.Context, operation string, fn func() error) error {
	attempts := e.policy.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.Delay(attempt)):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				log.Info("operation succeeded after retry",
					zap.String("operation", operation),
					zap.Int("attempt", attempt+1),
				)
			}
			return nil
		}

		log.Warn("operation attempt failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Error(lastErr),
		)
	}

	log.Error("operation failed after all retries",
		zap.String("operation", operation),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)

	return lastErr
}

// Delay returns the wait before the given retry (1-based: Delay(1) precedes
// the first retry).
func (e *Executor) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delay := float64(e.policy.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= e.policy.Multiplier
		if time.Duration(delay) >= e.policy.MaxDelay {
			return e.policy.MaxDelay
		}
	}
	if time.Duration(delay) > e.policy.MaxDelay {
		return e.policy.MaxDelay
	}
	return time.Duration(delay)
}
