package realtime

import (
	"sync"
	"time"
)

// fakeClock is a manual clock for tests. Advance fires due timers
// synchronously on the calling goroutine, in deadline order; callbacks may
// arm new timers.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer due on the way.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		t := c.popDue(target)
		if t == nil {
			break
		}
		c.now = t.when
		c.mu.Unlock()
		t.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// popDue removes and returns the earliest unexpired timer due at or before
// target, or nil. Caller holds the lock.
func (c *fakeClock) popDue(target time.Time) *fakeTimer {
	best := -1
	for i, t := range c.timers {
		if t.stopped || t.when.After(target) {
			continue
		}
		if best == -1 || t.when.Before(c.timers[best].when) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	t := c.timers[best]
	t.fired = true
	c.timers = append(c.timers[:best], c.timers[best+1:]...)
	return t
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
