package countdown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	ticks []int
	fires int
}

func (r *recorder) tick(st Status) {
	r.mu.Lock()
	r.ticks = append(r.ticks, st.Remaining)
	r.mu.Unlock()
}

func (r *recorder) fire() {
	r.mu.Lock()
	r.fires++
	r.mu.Unlock()
}

func newClock() *ManualClock {
	return NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
}

func newTestCountdown(clock *ManualClock, rec *recorder) *Countdown {
	return New(Options{Clock: clock, OnTick: rec.tick, OnFire: rec.fire})
}

func TestCountdown_FiresExactlyOnce(t *testing.T) {
	clock := newClock()
	rec := &recorder{}
	c := newTestCountdown(clock, rec)

	require.NoError(t, c.Start())
	st := c.Status()
	assert.Equal(t, Armed, st.State)
	assert.Equal(t, 30, st.Remaining)
	assert.Equal(t, 30, st.Total)
	assert.InDelta(t, 1.0, st.Progress, 1e-9)

	clock.Advance(10 * time.Second)
	assert.Equal(t, 20, c.Status().Remaining)
	assert.Equal(t, 0, rec.fires)

	clock.Advance(20 * time.Second)
	assert.Equal(t, 1, rec.fires)
	assert.Equal(t, Firing, c.Status().State)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, rec.fires)
	assert.Zero(t, clock.Pending())

	expected := make([]int, 0, 30)
	for n := 30; n >= 1; n-- {
		expected = append(expected, n)
	}
	assert.Equal(t, expected, rec.ticks)
}

func TestCountdown_ResetRestartsFullDuration(t *testing.T) {
	clock := newClock()
	rec := &recorder{}
	c := newTestCountdown(clock, rec)

	require.NoError(t, c.Start())
	clock.Advance(25 * time.Second)
	assert.Equal(t, 5, c.Status().Remaining)

	assert.True(t, c.Reset())
	assert.Equal(t, 30, c.Status().Remaining)

	// the first deadline would have been here
	clock.Advance(10 * time.Second)
	assert.Equal(t, 0, rec.fires)
	assert.Equal(t, 20, c.Status().Remaining)

	clock.Advance(20 * time.Second)
	assert.Equal(t, 1, rec.fires)
}

func TestCountdown_ResetIgnoredWhenNotArmed(t *testing.T) {
	clock := newClock()
	rec := &recorder{}
	c := newTestCountdown(clock, rec)

	assert.False(t, c.Reset())
	assert.Equal(t, Idle, c.Status().State)
	assert.Zero(t, clock.Pending())
	assert.Empty(t, rec.ticks)
}

func TestCountdown_ConfirmCancelsBothTimers(t *testing.T) {
	clock := newClock()
	rec := &recorder{}
	c := newTestCountdown(clock, rec)

	require.NoError(t, c.Start())
	clock.Advance(3 * time.Second)
	require.NoError(t, c.Confirm())

	assert.Equal(t, Firing, c.Status().State)
	assert.Zero(t, clock.Pending())

	ticksBefore := len(rec.ticks)
	clock.Advance(time.Minute)
	assert.Equal(t, 0, rec.fires)
	assert.Len(t, rec.ticks, ticksBefore)

	assert.ErrorIs(t, c.Confirm(), ErrFiring)
	assert.ErrorIs(t, c.Start(), ErrFiring)
	assert.False(t, c.Reset())

	c.Settle()
	assert.Equal(t, Idle, c.Status().State)
	require.NoError(t, c.Start())
	assert.Equal(t, Armed, c.Status().State)
}

func TestCountdown_StartReplacesRunning(t *testing.T) {
	clock := newClock()
	rec := &recorder{}
	c := newTestCountdown(clock, rec)

	require.NoError(t, c.Start())
	clock.Advance(20 * time.Second)
	require.NoError(t, c.Start())
	assert.Equal(t, 2, clock.Pending())

	clock.Advance(15 * time.Second)
	assert.Equal(t, 0, rec.fires)
	clock.Advance(15 * time.Second)
	assert.Equal(t, 1, rec.fires)
}

func TestCountdown_Cancel(t *testing.T) {
	clock := newClock()
	rec := &recorder{}
	c := newTestCountdown(clock, rec)

	require.NoError(t, c.Start())
	c.Cancel()
	assert.Equal(t, Idle, c.Status().State)
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Minute)
	assert.Equal(t, 0, rec.fires)
}

func TestCountdown_LateTickDoesNotDrift(t *testing.T) {
	clock := newClock()
	var ticks []Status
	c := New(Options{Clock: clock, OnTick: func(st Status) { ticks = append(ticks, st) }})

	require.NoError(t, c.Start())
	clock.Advance(1500 * time.Millisecond)
	// tick 1 ran at t=1s; remaining derives from start, not a counter
	assert.Equal(t, 29, ticks[len(ticks)-1].Remaining)
	assert.Equal(t, 29, c.Status().Remaining)

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 28, ticks[len(ticks)-1].Remaining)
}

func TestCountdown_RealClock(t *testing.T) {
	fired := make(chan struct{}, 2)
	c := New(Options{
		Duration: 40 * time.Millisecond,
		Interval: 10 * time.Millisecond,
		OnFire:   func() { fired <- struct{}{} },
	})
	require.NoError(t, c.Start())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never fired")
	}
	select {
	case <-fired:
		t.Fatal("countdown fired twice")
	case <-time.After(60 * time.Millisecond):
	}
	assert.Equal(t, Firing, c.Status().State)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "armed", Armed.String())
	assert.Equal(t, "firing", Firing.String())
}
