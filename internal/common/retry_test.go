package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sail-placements/sail/internal/service"
)

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	fastOpts := service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}

	t.Run("succeeds first try", func(t *testing.T) {
		var calls int
		err := WithRetry(ctx, func() error {
			calls++
			return nil
		}, fastOpts)
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("non-retryable error returns immediately", func(t *testing.T) {
		sentinel := errors.New("permanent")
		var calls int
		err := WithRetry(ctx, func() error {
			calls++
			return sentinel
		}, fastOpts)
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})

	t.Run("retryable error retries until success", func(t *testing.T) {
		var calls int
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return &RetryableError{Err: errors.New("transient"), Retryable: true}
			}
			return nil
		}, fastOpts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted attempts wrap ErrMaxRetries", func(t *testing.T) {
		err := WithRetry(ctx, func() error {
			return &RetryableError{Err: errors.New("transient"), Retryable: true}
		}, fastOpts)
		assert.ErrorIs(t, err, ErrMaxRetries)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		err := WithRetry(cancelCtx, func() error {
			return &RetryableError{Err: errors.New("transient"), Retryable: true}
		}, fastOpts)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUserError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewUserError("could not save the import", inner)

	assert.Contains(t, err.Error(), "could not save the import")
	assert.ErrorIs(t, err, inner)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
}
