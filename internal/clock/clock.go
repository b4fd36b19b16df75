package clock

import (
	"sync"
	"time"
)

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It returns false when the callback already
	// fired or was stopped before.
	Stop() bool
}

// Clock reports the current time and schedules delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// System is the wall clock backed by NowFunc and time.AfterFunc.
type System struct{}

func (System) Now() time.Time { return Now() }

func (System) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// New returns the system clock.
func New() Clock { return System{} }

// Manual is a deterministic Clock whose time only moves on Advance. Callbacks
// scheduled with AfterFunc run synchronously inside Advance, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	owner    *Manual
	deadline time.Time
	seq      int
	fn       func()
	done     bool
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, deadline: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Pending returns the number of armed timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.timers {
		if !t.done {
			count++
		}
	}
	return count
}

// Advance moves the clock forward by d and fires every timer whose deadline
// has been reached. Timers armed by a firing callback are fired as well when
// their deadline falls inside the advanced window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.fn()
	}
	m.mu.Lock()
	if m.now.Before(target) {
		m.now = target
	}
	m.mu.Unlock()
}

// nextDue pops the earliest armed timer due at or before target and moves the
// clock to its deadline.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next *manualTimer
	for _, t := range m.timers {
		if t.done || t.deadline.After(target) {
			continue
		}
		if next == nil || t.deadline.Before(next.deadline) || (t.deadline.Equal(next.deadline) && t.seq < next.seq) {
			next = t
		}
	}
	if next == nil {
		m.compact()
		return nil
	}
	next.done = true
	if next.deadline.After(m.now) {
		m.now = next.deadline
	}
	return next
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live
}
