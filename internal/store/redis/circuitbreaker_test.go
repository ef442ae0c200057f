package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFail = errors.New("fail")

// manualClock lets tests step past the cooldown without sleeping.
type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures int) (*CircuitBreaker, *manualClock) {
	clock := &manualClock{t: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker(maxFailures, time.Second)
	cb.now = clock.now
	return cb, clock
}

func fail() error { return errFail }
func ok() error   { return nil }

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)
	assert.Equal(t, StateClosed, cb.CurrentState())

	for i := 0; i < 3; i++ {
		assert.Equal(t, errFail, cb.Execute(fail))
	}
	assert.Equal(t, StateOpen, cb.CurrentState())
	assert.Equal(t, 1, cb.Trips())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.Equal(t, ErrCircuitOpen, err)
	assert.False(t, called, "open breaker must not run fn")
}

func TestCircuitBreaker_ProbeClosesOnSuccess(t *testing.T) {
	cb, clock := newTestBreaker(2)
	cb.Execute(fail)
	cb.Execute(fail)
	require.Equal(t, StateOpen, cb.CurrentState())

	clock.advance(500 * time.Millisecond)
	assert.Equal(t, ErrCircuitOpen, cb.Execute(ok), "still cooling down")

	clock.advance(time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, clock := newTestBreaker(2)
	cb.Execute(fail)
	cb.Execute(fail)

	clock.advance(2 * time.Second)
	cb.Execute(fail)

	assert.Equal(t, StateOpen, cb.CurrentState())
	assert.Equal(t, 2, cb.Trips())
	assert.Equal(t, ErrCircuitOpen, cb.Execute(ok), "cooldown restarts from the failed probe")
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(3)
	cb.Execute(fail)
	cb.Execute(fail)
	cb.Execute(ok)
	cb.Execute(fail)
	cb.Execute(fail)

	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, clock := newTestBreaker(1)
	var seen []State
	cb.OnStateChange = func(_, to State) { seen = append(seen, to) }

	cb.Execute(fail)
	clock.advance(2 * time.Second)
	cb.Execute(ok)

	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, seen)
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
