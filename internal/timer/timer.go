// Package timer is the table's hand clock: a countdown that can be paused
// and resumed, reading time from an injectable clock.
package timer

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Timer counts elapsed running time against a total. It is safe for
// concurrent use.
type Timer struct {
	mu       sync.Mutex
	clock    quartz.Clock
	total    time.Duration
	elapsed  time.Duration
	started  bool
	lastTick time.Time
}

// New returns a stopped timer of the given length.
func New(clock quartz.Clock, total time.Duration) *Timer {
	return &Timer{clock: clock, total: total, lastTick: clock.Now()}
}

// tick folds the time since the last tick into elapsed while running.
func (t *Timer) tick() {
	now := t.clock.Now()
	if t.started {
		t.elapsed += now.Sub(t.lastTick)
	}
	t.lastTick = now
}

// Start resumes counting. It does nothing if already running.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.tick()
	t.started = true
}

// Stop pauses counting. It does nothing if already stopped.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return
	}
	t.tick()
	t.started = false
}

// Toggle starts a stopped timer and stops a running one.
func (t *Timer) Toggle() {
	t.mu.Lock()
	running := t.started
	t.mu.Unlock()
	if running {
		t.Stop()
	} else {
		t.Start()
	}
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

func (t *Timer) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Elapsed returns the running time so far.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tick()
	return t.elapsed
}

// Remaining is negative once the time is up.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tick()
	return t.total - t.elapsed
}

// TimeIsUp reports whether the elapsed time has reached the total.
func (t *Timer) TimeIsUp() bool {
	return t.Remaining() <= 0
}

// Reset stops the timer and clears the elapsed time.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	t.elapsed = 0
	t.lastTick = t.clock.Now()
}

// Notify calls f when the time runs out, if the timer is running then. The
// call is scheduled once from the current remaining time; after a Stop or a
// Start, schedule again. The returned func cancels it.
func (t *Timer) Notify(f func()) (cancel func() bool) {
	remaining := t.Remaining()
	if !t.Running() || remaining <= 0 {
		return func() bool { return false }
	}
	qt := t.clock.AfterFunc(remaining, func() {
		if t.Running() && t.TimeIsUp() {
			f()
		}
	}, "timer", "notify")
	return func() bool { return qt.Stop() }
}

// snapshot is a timer's counters without its clock.
type snapshot struct {
	started  bool
	total    time.Duration
	elapsed  time.Duration
	lastTick time.Time
}

func (t *Timer) snapshot() snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return snapshot{started: t.started, total: t.total, elapsed: t.elapsed, lastTick: t.lastTick}
}

// restore rebuilds a timer from s. A running timer counts the time since
// s was taken.
func restore(clock quartz.Clock, s snapshot) *Timer {
	return &Timer{
		clock:    clock,
		total:    s.total,
		elapsed:  s.elapsed,
		started:  s.started,
		lastTick: s.lastTick,
	}
}

// clone returns an independent copy sharing the clock.
func (t *Timer) clone() *Timer {
	return restore(t.clock, t.snapshot())
}
