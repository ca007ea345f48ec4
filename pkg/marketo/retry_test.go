package marketo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func retryTransient(err error) bool { return errors.Is(err, errTransient) }

func TestRetry(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		got, err := Retry(context.Background(), RetryPolicy{MaxRetries: 5, Delay: time.Millisecond},
			func(context.Context) (string, error) {
				calls++
				return "done", nil
			}, retryTransient, nil)

		require.NoError(t, err)
		assert.Equal(t, "done", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("fatal failure stops immediately", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 5, Delay: time.Millisecond},
			func(context.Context) (string, error) {
				calls++
				return "", errFatal
			}, retryTransient, nil)

		require.Error(t, err)
		assert.Same(t, errFatal, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after retryable failures", func(t *testing.T) {
		calls := 0
		got, err := Retry(context.Background(), RetryPolicy{MaxRetries: 5, Delay: time.Millisecond},
			func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, errTransient
				}
				return calls, nil
			}, retryTransient, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("budget exhausted", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 2, Delay: time.Millisecond},
			func(context.Context) (string, error) {
				calls++
				return "", errTransient
			}, retryTransient, nil)

		require.Error(t, err)
		assert.Equal(t, 3, calls)

		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, err, errTransient)
	})

	t.Run("zero retries means one attempt", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 0, Delay: time.Millisecond},
			func(context.Context) (string, error) {
				calls++
				return "", errTransient
			}, retryTransient, nil)

		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 1, exhausted.Attempts)
		assert.Equal(t, 1, calls)
	})

	t.Run("fatal failure on the last attempt is not marked exhausted", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 1, Delay: time.Millisecond},
			func(context.Context) (string, error) {
				calls++
				if calls == 1 {
					return "", errTransient
				}
				return "", errFatal
			}, retryTransient, nil)

		assert.Same(t, errFatal, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("fixed delay between attempts", func(t *testing.T) {
		const delay = 20 * time.Millisecond
		var waits []time.Duration
		start := time.Now()
		_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 3, Delay: delay},
			func(context.Context) (string, error) {
				return "", errTransient
			}, retryTransient, func(_ error, _ int, next time.Duration) {
				waits = append(waits, next)
			})

		require.Error(t, err)
		assert.Equal(t, []time.Duration{delay, delay, delay}, waits)
		assert.GreaterOrEqual(t, time.Since(start), 3*delay)
	})

	t.Run("notify reports attempt numbers", func(t *testing.T) {
		var attempts []int
		_, _ = Retry(context.Background(), RetryPolicy{MaxRetries: 2, Delay: time.Millisecond},
			func(context.Context) (string, error) {
				return "", errTransient
			}, retryTransient, func(_ error, n int, _ time.Duration) {
				attempts = append(attempts, n)
			})

		assert.Equal(t, []int{1, 2}, attempts)
	})

	t.Run("context cancellation during delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Retry(ctx, RetryPolicy{MaxRetries: 5, Delay: time.Hour},
			func(context.Context) (string, error) {
				calls++
				cancel()
				return "", errTransient
			}, retryTransient, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)

		var exhausted *RetryExhaustedError
		assert.False(t, errors.As(err, &exhausted))
	})

	t.Run("negative retries are clamped", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), RetryPolicy{MaxRetries: -3},
			func(context.Context) (string, error) {
				calls++
				return "", errTransient
			}, retryTransient, nil)

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
