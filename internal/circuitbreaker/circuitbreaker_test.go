//go:build !integration

package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

type transition struct {
	from, to State
}

func newTestBreaker(cfg Config) (*CircuitBreaker, *time.Time, *[]transition) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var transitions []transition
	cfg.OnStateChange = func(_ string, from, to State) {
		transitions = append(transitions, transition{from, to})
	}
	cb := New(cfg)
	cb.now = func() time.Time { return now }
	return cb, &now, &transitions
}

func fail() error    { return errUpstream }
func succeed() error { return nil }

func TestCircuitBreaker_Execute(t *testing.T) {
	tests := []struct {
		name      string
		calls     []func() error
		wantErr   error
		wantState State
	}{
		{
			name:      "success keeps closed",
			calls:     []func() error{succeed},
			wantState: StateClosed,
		},
		{
			name:      "failures below threshold keep closed",
			calls:     []func() error{fail},
			wantErr:   errUpstream,
			wantState: StateClosed,
		},
		{
			name:      "threshold opens",
			calls:     []func() error{fail, fail},
			wantErr:   errUpstream,
			wantState: StateOpen,
		},
		{
			name:      "success resets failure count",
			calls:     []func() error{fail, succeed, fail},
			wantErr:   errUpstream,
			wantState: StateClosed,
		},
		{
			name:      "open rejects without calling",
			calls:     []func() error{fail, fail, succeed},
			wantErr:   ErrCircuitOpen,
			wantState: StateOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, _, _ := newTestBreaker(Config{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Second, Name: "test"})

			var err error
			for _, call := range tt.calls {
				err = cb.Execute(context.Background(), call)
			}

			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, cb.State())
		})
	}
}

func TestCircuitBreaker_Recovery(t *testing.T) {
	cb, now, transitions := newTestBreaker(Config{FailureThreshold: 2, SuccessThreshold: 2, Timeout: 50 * time.Millisecond, Name: "test"})

	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, cb.State())

	*now = now.Add(60 * time.Millisecond)

	require.NoError(t, cb.Execute(context.Background(), succeed))
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), succeed))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, *transitions)
}

func TestCircuitBreaker_HalfOpenFailure(t *testing.T) {
	cb, now, _ := newTestBreaker(Config{FailureThreshold: 2, SuccessThreshold: 2, Timeout: 50 * time.Millisecond, Name: "test"})

	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), fail)
	*now = now.Add(60 * time.Millisecond)

	err := cb.Execute(context.Background(), fail)

	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(context.Background(), succeed), ErrCircuitOpen)
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	errNotFound := errors.New("not found")
	cb, _, _ := newTestBreaker(Config{
		FailureThreshold: 1,
		Name:             "test",
		IsFailure: func(err error) bool {
			return !errors.Is(err, errNotFound)
		},
	})

	err := cb.Execute(context.Background(), func() error { return errNotFound })

	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, StateClosed, cb.State(), "ignored errors do not trip the breaker")
}

func TestCircuitBreaker_ContextCancellation(t *testing.T) {
	cb, _, _ := newTestBreaker(Config{FailureThreshold: 1, Name: "test"})

	t.Run("done context short-circuits", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false

		err := cb.Execute(ctx, func() error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("cancellation inside fn is not a failure", func(t *testing.T) {
		err := cb.Execute(context.Background(), func() error { return context.Canceled })

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateClosed, cb.State())
	})
}

func TestDo(t *testing.T) {
	cb, _, _ := newTestBreaker(Config{FailureThreshold: 1, Name: "test"})

	v, err := Do(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = Do(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 9, errUpstream
	})
	assert.ErrorIs(t, err, errUpstream)
	assert.Zero(t, v)

	_, err = Do(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_GetStats(t *testing.T) {
	cb, _, _ := newTestBreaker(Config{FailureThreshold: 3, Name: "mongodb-hackathons"})

	stats := cb.GetStats()
	assert.Equal(t, "mongodb-hackathons", stats.Name)
	assert.Equal(t, "closed", stats.State)
	assert.True(t, stats.IsHealthy)
	assert.Zero(t, stats.FailureCount)

	_ = cb.Execute(context.Background(), fail)

	stats = cb.GetStats()
	assert.Equal(t, 1, stats.FailureCount)
	assert.False(t, stats.LastFailure.IsZero())
	assert.True(t, stats.IsHealthy)
}

func TestNew_Defaults(t *testing.T) {
	cb := New(Config{})

	assert.Equal(t, "circuit-breaker", cb.Name())
	assert.Equal(t, 5, cb.config.FailureThreshold)
	assert.Equal(t, 2, cb.config.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cb.config.Timeout)
	assert.False(t, cb.IsOpen())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
