package retry

import (
	"context"
	"time"

	utils "github.com/ordishs/go-utils"
)

// Retry calls fn until it succeeds, the retry budget is exhausted, or ctx is
// canceled, backing off between attempts per the supplied Options. Matches
// the call shape used across the codebase (retry.Retry(ctx, logger, fn,
// retry.WithMessage(...))); RetryWithLogger's actual loop was not present
// in the retrieved source, so this reconstructs it from SetOptions' fields
// and every observed call site's usage.
func Retry[T any](ctx context.Context, logger utils.Logger, fn func() (T, error), opts ...Options) (T, error) {
	options := NewSetOptions(opts...)

	backoff := options.BackoffDurationType
	var zero T
	var lastErr error

	for attempt := 0; options.InfiniteRetry || attempt < options.RetryCount; attempt++ {
		if attempt > 0 {
			if logger != nil {
				logger.Warnf("%s: attempt %d, waiting %s, last error: %v", options.Message, attempt, backoff, lastErr)
			}
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}

			if options.ExponentialBackoff {
				backoff = time.Duration(float64(backoff) * options.BackoffFactor)
			} else {
				backoff = backoff + options.BackoffDurationType*time.Duration(options.BackoffMultiplier)
			}
			if backoff > options.MaxBackoff {
				backoff = options.MaxBackoff
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
