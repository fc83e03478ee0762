// Package countdown implements the auto-publish countdown: a single-shot
// delayed action with a visible per-second tick, which can be reset, fired
// early, or cancelled, and which fires at most once per arming.
package countdown

import (
	"errors"
	"math"
	"sync"
	"time"
)

// DefaultDuration is how long content waits before it is published
// automatically.
const DefaultDuration = 30 * time.Second

// ErrFiring is returned when a publish has already been committed.
var ErrFiring = errors.New("countdown: publish already in progress")

// State is the controller state.
type State int

const (
	Idle State = iota
	Armed
	Firing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Firing:
		return "firing"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view for rendering.
type Status struct {
	State     State
	Remaining int
	Total     int
	// Progress runs from 1 (just armed) down to 0 (deadline).
	Progress float64
}

// Options configure a Countdown.
type Options struct {
	Duration time.Duration
	Interval time.Duration
	Clock    Clock
	// OnTick receives the status after arming and after every tick.
	OnTick func(Status)
	// OnFire runs once when the deadline is reached. It is not called for
	// Confirm; the caller publishes directly in that case.
	OnFire func()
}

// Countdown drives the Idle -> Armed -> Firing -> Idle cycle. Both the tick
// and the deadline timer are derived from one start time, and every arming
// bumps an epoch so callbacks from an earlier arming are ignored.
type Countdown struct {
	mu        sync.Mutex
	clock     Clock
	duration  time.Duration
	interval  time.Duration
	onTick    func(Status)
	onFire    func()
	state     State
	epoch     uint64
	startedAt time.Time
	tick      Timer
	deadline  Timer
}

// New builds an idle Countdown.
func New(opts Options) *Countdown {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	return &Countdown{
		clock:    opts.Clock,
		duration: opts.Duration,
		interval: opts.Interval,
		onTick:   opts.OnTick,
		onFire:   opts.OnFire,
	}
}

// Start arms a full countdown, replacing any running one.
func (c *Countdown) Start() error {
	c.mu.Lock()
	if c.state == Firing {
		c.mu.Unlock()
		return ErrFiring
	}
	st := c.armLocked()
	c.mu.Unlock()

	c.emitTick(st)
	return nil
}

// Reset restarts a running countdown at full duration. It reports false and
// does nothing unless the countdown is Armed.
func (c *Countdown) Reset() bool {
	c.mu.Lock()
	if c.state != Armed {
		c.mu.Unlock()
		return false
	}
	st := c.armLocked()
	c.mu.Unlock()

	c.emitTick(st)
	return true
}

// Confirm commits to publishing now. Pending timers are cancelled and the
// state becomes Firing; OnFire is not invoked.
func (c *Countdown) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Firing {
		return ErrFiring
	}
	c.enterFiringLocked()
	return nil
}

// Cancel stops a running countdown without publishing.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Armed {
		return
	}
	c.stopLocked()
	c.state = Idle
}

// Settle ends a publish attempt, successful or not.
func (c *Countdown) Settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Firing {
		c.state = Idle
	}
}

// Status reports the current state and remaining whole seconds.
func (c *Countdown) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(c.clock.Now())
}

func (c *Countdown) armLocked() Status {
	c.stopLocked()
	c.state = Armed
	c.startedAt = c.clock.Now()
	epoch := c.epoch
	c.deadline = c.clock.AfterFunc(c.duration, func() { c.expire(epoch) })
	c.scheduleTickLocked(epoch, 1)
	return c.statusLocked(c.startedAt)
}

// stopLocked cancels both timers together and invalidates their callbacks.
func (c *Countdown) stopLocked() {
	c.epoch++
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
}

func (c *Countdown) enterFiringLocked() {
	c.stopLocked()
	c.state = Firing
}

// scheduleTickLocked aims tick k at startedAt + k*interval so delays in
// delivering one tick do not push back the next.
func (c *Countdown) scheduleTickLocked(epoch uint64, k int) {
	due := c.startedAt.Add(time.Duration(k) * c.interval)
	if !due.Before(c.startedAt.Add(c.duration)) {
		return
	}
	delay := due.Sub(c.clock.Now())
	if delay < 0 {
		delay = 0
	}
	c.tick = c.clock.AfterFunc(delay, func() { c.onTickTimer(epoch, k) })
}

func (c *Countdown) onTickTimer(epoch uint64, k int) {
	c.mu.Lock()
	if epoch != c.epoch || c.state != Armed {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	st := c.statusLocked(now)
	if st.Remaining == 0 {
		c.enterFiringLocked()
		c.mu.Unlock()
		c.emitFire()
		return
	}
	// skip ticks that are already overdue
	next := k + 1
	if elapsed := int(now.Sub(c.startedAt) / c.interval); elapsed >= next {
		next = elapsed + 1
	}
	c.scheduleTickLocked(epoch, next)
	c.mu.Unlock()

	c.emitTick(st)
}

func (c *Countdown) expire(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || c.state != Armed {
		c.mu.Unlock()
		return
	}
	c.enterFiringLocked()
	c.mu.Unlock()

	c.emitFire()
}

func (c *Countdown) statusLocked(now time.Time) Status {
	total := int(math.Ceil(c.duration.Seconds()))
	st := Status{State: c.state, Total: total}
	if c.state != Armed {
		return st
	}
	left := c.startedAt.Add(c.duration).Sub(now)
	if left < 0 {
		left = 0
	}
	st.Remaining = int(math.Ceil(left.Seconds()))
	if st.Remaining > total {
		st.Remaining = total
	}
	st.Progress = float64(left) / float64(c.duration)
	return st
}

func (c *Countdown) emitTick(st Status) {
	if c.onTick != nil {
		c.onTick(st)
	}
}

func (c *Countdown) emitFire() {
	if c.onFire != nil {
		c.onFire()
	}
}
