package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dollarsandsense/tally/internal/service"
)

var (
	// ErrRateLimit marks an API rate-limit response; retries against it
	// wait the full maximum delay instead of backing off gradually.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries reports that every attempt failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// permanentError stops WithRetry from attempting again.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Errors are retryable by
// default; wrap the ones where another attempt cannot help, such as
// rejected credentials.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithRetry runs op until it succeeds, fails permanently, or exhausts
// opts.MaxAttempts. Waits between attempts grow geometrically up to
// opts.MaxDelay.
func WithRetry(ctx context.Context, op func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)
	wait := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return err
		}

		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, opts.MaxAttempts, err)
		}

		if errors.Is(err, ErrRateLimit) {
			wait = opts.MaxDelay
		}

		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"wait", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		wait = time.Duration(float64(wait) * opts.Multiplier)
		if wait > opts.MaxDelay {
			wait = opts.MaxDelay
		}
	}
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	return opts
}
