package marketo

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// RetryPolicy bounds the retry loop. MaxRetries counts retries after the
// first attempt, so MaxRetries=0 means a single attempt.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// Retry runs attempt until it succeeds, fails with an error shouldRetry
// rejects, or the budget is spent. Waits between attempts are a fixed
// policy.Delay. A retryable failure on the last attempt is returned as a
// *RetryExhaustedError; a rejected one is returned unchanged.
func Retry[T any](
	ctx context.Context,
	policy RetryPolicy,
	attempt func(ctx context.Context) (T, error),
	shouldRetry func(error) bool,
	notify func(err error, attempt int, next time.Duration),
) (T, error) {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}

	attempts := 0
	operation := func() (T, error) {
		attempts++
		res, err := attempt(ctx)
		if err == nil {
			return res, nil
		}
		if !shouldRetry(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(uint(policy.MaxRetries) + 1),
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			notify(err, attempts, next)
		}))
	}

	res, err := backoff.Retry(ctx, operation, opts...)
	if err == nil {
		return res, nil
	}

	// The try limit short-circuits before backoff unwraps permanent errors.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return res, permanent.Unwrap()
	}
	if ctx.Err() == nil && shouldRetry(err) {
		return res, &RetryExhaustedError{Attempts: attempts, Err: err}
	}
	return res, err
}

// retry is Retry with the client's policy, logging and metrics.
func retry[T any](ctx context.Context, c *Client, logger *zap.Logger, endpoint string, attempt func(ctx context.Context) (T, error)) (T, error) {
	policy := RetryPolicy{MaxRetries: c.config.MaxRetries, Delay: c.config.RetryDelay}
	return Retry(ctx, policy, attempt, ShouldRetry, func(err error, n int, next time.Duration) {
		c.metrics.observeRetry(endpoint)
		logger.Warn("Request failed, will retry",
			zap.Error(err),
			zap.Int("attempt", n),
			zap.Int("max_retries", policy.MaxRetries),
			zap.Duration("retry_in", next))
	})
}
