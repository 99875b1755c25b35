package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flaky fails until the given attempt.
func flaky(succeedOn int, attempts *int) func() error {
	return func() error {
		*attempts++
		if *attempts < succeedOn {
			return errors.New("connection refused")
		}
		return nil
	}
}

func TestWithExponentialBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		succeedOn    int
		maxRetries   int
		wantErr      string
		wantAttempts int
	}{
		{"first try", 1, 3, "", 1},
		{"after retries", 3, 3, "", 3},
		{"exhausted", 10, 2, "operation failed after 3 attempts", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			attempts := 0
			err := WithExponentialBackoff(context.Background(), flaky(tt.succeedOn, &attempts),
				WithMaxRetries(tt.maxRetries),
				WithInitialDelay(time.Millisecond),
				WithMaxDelay(4*time.Millisecond))

			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, err.Error(), "connection refused")
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestWithExponentialBackoff_Grows(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	attempts := 0
	err := WithExponentialBackoff(context.Background(), flaky(4, &attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(time.Second),
		WithNotify(func(_ error, next time.Duration) { delays = append(delays, next) }))

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)
}

func TestWithExponentialBackoff_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := WithExponentialBackoff(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("still booting")
	}, WithMaxRetries(10), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "context cancelled after")
	assert.Less(t, attempts, 10)
}

func TestWithConstantInterval(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := WithConstantInterval(context.Background(), func() error {
		attempts++
		return errors.New("cloud-init running")
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 4, attempts)
	assert.False(t, IsFatal(err), "exhausted retries are not fatal")
}

func TestWithConstantInterval_Notify(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	attempts := 0
	err := WithConstantInterval(context.Background(), flaky(3, &attempts),
		WithInitialDelay(2*time.Millisecond),
		WithNotify(func(_ error, next time.Duration) { delays = append(delays, next) }))

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestFatal_StopsRetrying(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("permission denied (publickey)")
	for name, run := range map[string]func(context.Context, func() error, ...Option) error{
		"exponential": WithExponentialBackoff,
		"constant":    WithConstantInterval,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			attempts := 0
			err := run(context.Background(), func() error {
				attempts++
				return Fatal(sentinel)
			}, WithInitialDelay(time.Millisecond))

			assert.ErrorIs(t, err, sentinel)
			assert.True(t, IsFatal(err))
			assert.Contains(t, err.Error(), "fatal error (not retrying)")
			assert.Equal(t, 1, attempts)
		})
	}
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))

	base := errors.New("bad host key")
	err := Fatal(base)
	assert.Equal(t, "bad host key", err.Error())
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, base)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, base, fatal.Unwrap())
}
