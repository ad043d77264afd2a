// Package resilience wraps transient-failure handling for calls to backing
// services. Backoff scheduling comes from sethvargo/go-retry.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	JitterPercent uint64
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		JitterPercent: 10,
	}
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Retry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs fn until it succeeds, returns a Permanent error, the attempts
// run out or ctx is done. Delays grow exponentially from InitialDelay up to
// MaxDelay with jitter. Zero fields take defaults.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	defaults := defaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaults.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	if cfg.JitterPercent == 0 {
		cfg.JitterPercent = defaults.JitterPercent
	}
	logger := slog.Default().With("component", "retry", "operation", name)

	b := retry.NewExponential(cfg.InitialDelay)
	b = retry.WithCappedDuration(cfg.MaxDelay, b)
	b = retry.WithJitterPercent(cfg.JitterPercent, b)
	b = retry.WithMaxRetries(uint64(cfg.MaxAttempts-1), b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt < cfg.MaxAttempts {
			logger.Warn("operation failed, retrying",
				"attempt", attempt,
				"max_attempts", cfg.MaxAttempts,
				"error", err,
			)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("retry aborted: %w", ctx.Err())
	}
	if attempt >= cfg.MaxAttempts {
		return fmt.Errorf("all %d attempts failed for %s: %w", cfg.MaxAttempts, name, err)
	}
	return err
}
