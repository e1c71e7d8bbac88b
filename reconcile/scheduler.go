package reconcile

import (
	"slices"
	"sync"
	"time"
)

// FrameID identifies a scheduled frame callback.
type FrameID uint64

// Scheduler runs callbacks at the display cadence. Cancel of an unknown or
// already-fired id is a no-op.
type Scheduler interface {
	Request(fn func()) FrameID
	Cancel(id FrameID)
}

// DefaultFrameInterval is one frame at 60 fps.
const DefaultFrameInterval = time.Second / 60

// TimerScheduler fires each request once after a fixed interval.
type TimerScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	next   FrameID
	timers map[FrameID]*time.Timer
}

// NewTimerScheduler creates a scheduler with the given frame interval.
// Zero means DefaultFrameInterval.
func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TimerScheduler{interval: interval, timers: make(map[FrameID]*time.Timer)}
}

func (s *TimerScheduler) Request(fn func()) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.timers[id] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return id
}

func (s *TimerScheduler) Cancel(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// ManualClock is a Scheduler driven by explicit Step calls.
type ManualClock struct {
	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]func()
}

// NewManualClock creates an idle ManualClock.
func NewManualClock() *ManualClock {
	return &ManualClock{pending: make(map[FrameID]func())}
}

func (c *ManualClock) Request(fn func()) FrameID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.pending[c.next] = fn
	return c.next
}

func (c *ManualClock) Cancel(id FrameID) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Step fires every callback pending at the time of the call, in request
// order, and reports how many ran. Callbacks requested during the step wait
// for the next one.
func (c *ManualClock) Step() int {
	c.mu.Lock()
	ids := make([]FrameID, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	slices.Sort(ids)

	ran := 0
	for _, id := range ids {
		c.mu.Lock()
		fn, ok := c.pending[id]
		delete(c.pending, id)
		c.mu.Unlock()
		if ok {
			fn()
			ran++
		}
	}
	return ran
}

// Pending returns the number of scheduled callbacks.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
