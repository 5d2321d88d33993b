package helper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	t.Run("No delay for first attempt", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), CalculateBackoff(time.Second, 0))
	})

	t.Run("No delay for zero base", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), CalculateBackoff(0, 3))
	})

	t.Run("Exponential growth within jitter bounds", func(t *testing.T) {
		for attempt := 1; attempt <= 4; attempt++ {
			expected := time.Second * time.Duration(1<<uint(attempt))
			got := CalculateBackoff(time.Second, attempt)

			assert.GreaterOrEqual(t, got, expected-expected/4, "attempt %d below jitter window", attempt)
			assert.LessOrEqual(t, got, expected+expected/4, "attempt %d above jitter window", attempt)
		}
	})

	t.Run("Capped at thirty seconds", func(t *testing.T) {
		got := CalculateBackoff(time.Second, 100)

		assert.LessOrEqual(t, got, 30*time.Second+30*time.Second/4)
		assert.GreaterOrEqual(t, got, 30*time.Second-30*time.Second/4)
	})
}

func TestRetry(t *testing.T) {
	t.Run("Returns on first success", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
			calls++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("Retries until success", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("Gives up after max retries", func(t *testing.T) {
		cause := errors.New("permanent")
		calls := 0
		err := Retry(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
			calls++
			return cause
		})

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "failed after 3 attempts")
	})

	t.Run("Stops waiting when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Retry(ctx, 5, time.Hour, func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("temporary")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
