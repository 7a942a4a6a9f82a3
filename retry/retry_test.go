package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/embedbench/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failUntil returns an operation that fails until its n-th call.
func failUntil(n int, calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls < n {
			return errors.New("temporary error")
		}
		return nil
	}
}

func TestPolicy_Do(t *testing.T) {
	persistent := errors.New("persistent error")
	tests := []struct {
		name        string
		maxAttempts int
		succeedOn   int
		wantErr     error
		wantCalls   int
	}{
		{name: "first try", maxAttempts: 3, succeedOn: 1, wantCalls: 1},
		{name: "eventual success", maxAttempts: 5, succeedOn: 3, wantCalls: 3},
		{name: "exhausted", maxAttempts: 3, succeedOn: 0, wantErr: persistent, wantCalls: 3},
		{name: "zero attempts", maxAttempts: 0, succeedOn: 1, wantErr: ErrInvalidMaxAttempts},
		{name: "negative attempts", maxAttempts: -1, succeedOn: 1, wantErr: ErrInvalidMaxAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			op := failUntil(tt.succeedOn, &calls)
			if tt.succeedOn == 0 {
				op = func(context.Context) error {
					calls++
					return persistent
				}
			}

			p := Policy{MaxAttempts: tt.maxAttempts, BaseDelay: time.Millisecond}
			err := p.Do(context.Background(), op)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{MaxAttempts: 10, BaseDelay: 10 * time.Millisecond}

	err := p.Do(ctx, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("error")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestPolicy_StopsOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p := Policy{MaxAttempts: 10, BaseDelay: 10 * time.Millisecond}

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		time.Sleep(30 * time.Millisecond)
		return errors.New("error")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, calls, 3)
}

func TestPolicy_BackoffGrows(t *testing.T) {
	var delays []time.Duration
	last := time.Now()
	calls := 0
	p := Policy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls > 1 {
			delays = append(delays, time.Since(last))
		}
		last = time.Now()
		if calls < 4 {
			return errors.New("error")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, delays, 3)
	assert.Greater(t, delays[1], delays[0])
	assert.Greater(t, delays[2], delays[1])
}

func TestPolicy_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   core.IsTransient,
	}

	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		return core.ErrBatchLengthMismatch
	})
	require.ErrorIs(t, err, core.ErrContractViolation)
	assert.Equal(t, 1, attempts, "contract violations must not be retried")
}

func TestPolicy_RetriesTransientHTTPErrors(t *testing.T) {
	attempts := 0
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Retryable:   core.IsTransient,
	}

	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		return &core.HTTPError{Op: "POST", URL: "http://api", StatusCode: 503}
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	var httpErr *core.HTTPError
	require.ErrorAs(t, err, &httpErr, "last error is returned unwrapped")
	assert.Equal(t, 503, httpErr.StatusCode)
}

func TestPolicy_OnAttempt(t *testing.T) {
	var seen []int
	var failures int
	p := Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		OnAttempt: func(attempt int, elapsed time.Duration, err error) {
			seen = append(seen, attempt)
			assert.GreaterOrEqual(t, elapsed, time.Duration(0))
			if err != nil {
				failures++
			}
		},
	}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 2, failures)
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, 1*time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4), "delay is capped")
	assert.Equal(t, 5*time.Second, p.Delay(30), "large attempts do not overflow")

	uncapped := Policy{BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 80*time.Millisecond, uncapped.Delay(4))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	require.NotNil(t, p.Retryable)
	assert.True(t, p.Retryable(&core.HTTPError{StatusCode: 500}))
	assert.False(t, p.Retryable(&core.HTTPError{StatusCode: 400}))
}
