package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/util/retry"
)

// Probe checks whether the real-world effect of a stage is observable.
type Probe interface {
	Check(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) error

// Check calls f(ctx).
func (f ProbeFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// Policy bounds a health wait.
type Policy struct {
	Attempts int
	Interval time.Duration
	Timeout  time.Duration
}

// PolicyFromSettings converts the configured probe settings.
func PolicyFromSettings(s config.ProbeSettings) Policy {
	return Policy{Attempts: s.Attempts, Interval: s.Interval, Timeout: s.Timeout}
}

// TimeoutError reports a probe that did not succeed before its deadline.
type TimeoutError struct {
	Probe   string
	Timeout time.Duration
	Last    error
}

func (e *TimeoutError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("probe %s timed out after %s", e.Probe, e.Timeout)
	}
	return fmt.Sprintf("probe %s timed out after %s: %v", e.Probe, e.Timeout, e.Last)
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

// ExhaustedError reports a probe that failed on every allowed attempt.
type ExhaustedError struct {
	Probe    string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("probe %s failed after %d attempts: %v", e.Probe, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Wait polls probe until it succeeds, policy.Attempts are used up, or
// policy.Timeout (or a deadline on ctx) expires. Errors marked with
// retry.Fatal end the wait at once.
func Wait(ctx context.Context, name string, probe Probe, policy Policy) error {
	logger := logr.FromContextOrDiscard(ctx).WithValues("probe", name)

	attempts := max(policy.Attempts, 1)
	waitCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	var last error
	err := retry.WithConstantInterval(waitCtx, func() error {
		if err := probe.Check(waitCtx); err != nil {
			last = err
			return err
		}
		return nil
	},
		retry.WithMaxRetries(attempts-1),
		retry.WithInitialDelay(policy.Interval),
		retry.WithNotify(func(err error, next time.Duration) {
			logger.V(1).Info("probe not ready", "error", err.Error(), "retryIn", next)
		}),
	)
	if err == nil {
		logger.V(1).Info("probe succeeded")
		return nil
	}

	switch {
	case retry.IsFatal(err):
		return fmt.Errorf("probe %s: %w", name, err)
	case errors.Is(waitCtx.Err(), context.DeadlineExceeded):
		return &TimeoutError{Probe: name, Timeout: policy.Timeout, Last: last}
	case ctx.Err() != nil:
		return fmt.Errorf("probe %s: %w", name, ctx.Err())
	default:
		return &ExhaustedError{Probe: name, Attempts: attempts, Last: last}
	}
}

// All returns a probe that succeeds once every probe succeeds, checked in order.
func All(probes ...Probe) Probe {
	return ProbeFunc(func(ctx context.Context) error {
		for _, p := range probes {
			if err := p.Check(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
