// Package retry runs fallible operations with exponential backoff and
// jitter. Used by the supplemental transports (sheets mirror, push
// notifier); the page traversal keeps its own single-retry semantics.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy bounds one retried operation. Attempts is the total number of
// tries, including the first; PerTryTimeout caps each individual try.
type Policy struct {
	Attempts      int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	PerTryTimeout time.Duration
}

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	var lastErr error
	for try := 1; try <= p.Attempts; try++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		opCtx := ctx
		cancel := func() {}
		if p.PerTryTimeout > 0 {
			opCtx, cancel = context.WithTimeout(ctx, p.PerTryTimeout)
		}
		result, err := op(opCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("try", try).Int("attempts", p.Attempts).Msg("Operation failed")

		if try == p.Attempts {
			break
		}

		delay := backoffDelay(try, p.BaseDelay, p.MaxDelay)
		log.Debug().Dur("delay", delay).Int("next_try", try+1).Msg("Retrying after delay")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, fmt.Errorf("operation failed after %d attempts: %w", p.Attempts, lastErr)
}

// backoffDelay doubles the base delay per completed try, capped at maxDelay,
// with 0.5x-1.5x jitter to avoid synchronized retries.
func backoffDelay(try int, baseDelay, maxDelay time.Duration) time.Duration {
	// Cap the shift so the multiplier cannot overflow.
	shift := min(try-1, 30)
	delay := baseDelay << shift
	if delay > maxDelay {
		delay = maxDelay
	}

	delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
