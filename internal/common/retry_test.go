package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dollarsandsense/tally/internal/service"
)

func fastRetryOpts() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	}, fastRetryOpts())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	boom := errors.New("bad credentials")

	err := WithRetry(context.Background(), func() error {
		calls++
		return Permanent(boom)
	}, fastRetryOpts())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "permanent errors should not be retried")
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++
		return errors.New("always down")
	}, fastRetryOpts())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Contains(t, err.Error(), "always down")
	assert.Equal(t, 3, calls)
}

func TestWithRetryHonorsContextDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := fastRetryOpts()
	opts.InitialDelay = time.Hour
	opts.MaxDelay = time.Hour

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := WithRetry(ctx, func() error {
		return errors.New("flaky")
	}, opts)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRetryZeroOptionsGetDefaults(t *testing.T) {
	// All-zero options still terminate instead of retrying forever.
	calls := 0

	err := WithRetry(context.Background(), func() error {
		calls++
		return errors.New("down")
	}, service.RetryOptions{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
