package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds retry configuration.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Notify       func(err error, next time.Duration)
}

// Option is a functional option for retry configuration.
type Option func(*Config)

func newConfig(opts []Option) *Config {
	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithExponentialBackoff executes the operation with exponential backoff retry.
// It retries the operation up to MaxRetries times, with exponentially increasing
// delays between attempts. Context cancellation is respected throughout.
//
// Errors wrapped with Fatal() are not retried.
func WithExponentialBackoff(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := newConfig(opts)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	return run(ctx, b, cfg, operation)
}

// WithConstantInterval executes the operation until it succeeds, pausing
// InitialDelay between attempts, for at most MaxRetries retries.
func WithConstantInterval(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := newConfig(opts)
	return run(ctx, backoff.NewConstantBackOff(cfg.InitialDelay), cfg, operation)
}

func run(ctx context.Context, b backoff.BackOff, cfg *Config, operation func() error) error {
	attempts := 0
	var lastErr error

	op := func() error {
		attempts++
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		if IsFatal(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(cfg.MaxRetries, 0))), ctx)

	var err error
	if cfg.Notify != nil {
		err = backoff.RetryNotify(op, policy, cfg.Notify)
	} else {
		err = backoff.Retry(op, policy)
	}
	if err == nil {
		return nil
	}

	if IsFatal(err) {
		return fmt.Errorf("fatal error (not retrying): %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("context cancelled after %d attempts: %w", attempts, ctxErr)
	}
	return fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithInitialDelay sets the initial delay between retries.
// For WithConstantInterval it is the fixed interval.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithNotify registers a callback invoked after each failed attempt that
// will be retried.
func WithNotify(fn func(err error, next time.Duration)) Option {
	return func(c *Config) {
		c.Notify = fn
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
// Operations that encounter fatal errors will not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
