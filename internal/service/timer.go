package service

import (
	"sync"
	"time"
)

// Timer fires once its deadline passes. The deadline is fixed when the timer
// is created; the underlying runtime timer is only armed on the first poll
// that finds it pending.
type Timer struct {
	deadline time.Time

	mu      sync.Mutex
	waker   Waker
	t       *time.Timer
	stopped bool
}

// NewTimer creates a timer that fires d from now
func NewTimer(d time.Duration) *Timer {
	return &Timer{deadline: time.Now().Add(d)}
}

// Deadline returns the instant the timer fires
func (t *Timer) Deadline() time.Time {
	return t.deadline
}

// Poll reports whether the deadline has passed. A stopped timer never fires.
func (t *Timer) Poll(w Waker) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return false
	}

	remaining := time.Until(t.deadline)
	if remaining <= 0 {
		t.release()
		return true
	}

	t.waker = w
	if t.t == nil {
		t.t = time.AfterFunc(remaining, t.fire)
	}
	return false
}

// Stop releases the timer. No wakeups are delivered after Stop returns.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.release()
}

func (t *Timer) release() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.waker = nil
}

func (t *Timer) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.waker != nil {
		t.waker.Wake()
	}
}
