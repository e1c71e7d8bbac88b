package annotator

import (
	"sync"
	"time"
)

// DefaultConfirmTimeout is how long an armed destructive action waits for
// confirmation.
const DefaultConfirmTimeout = 3 * time.Second

// Armer implements two-step confirmation for destructive actions. Arm opens
// a window keyed by action; it closes on its own after the timeout.
type Armer struct {
	timeout time.Duration

	mu     sync.Mutex
	armed  map[string]*time.Timer
	onDrop func(key string)
}

// NewArmer creates an Armer. onDrop, when set, is called (from the timer
// goroutine) each time an armed key expires unconfirmed.
func NewArmer(timeout time.Duration, onDrop func(key string)) *Armer {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	return &Armer{timeout: timeout, armed: make(map[string]*time.Timer), onDrop: onDrop}
}

// Arm opens the confirmation window for key, restarting it if already open.
func (a *Armer) Arm(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.armed[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(a.timeout, func() {
		a.mu.Lock()
		cur, ok := a.armed[key]
		if ok && cur == t {
			delete(a.armed, key)
		}
		a.mu.Unlock()
		if ok && cur == t && a.onDrop != nil {
			a.onDrop(key)
		}
	})
	a.armed[key] = t
}

// Confirm consumes the window for key and reports whether it was open.
func (a *Armer) Confirm(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.armed[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(a.armed, key)
	return true
}

// Armed reports whether key is waiting for confirmation.
func (a *Armer) Armed(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.armed[key]
	return ok
}

// Reset disarms everything.
func (a *Armer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, t := range a.armed {
		t.Stop()
		delete(a.armed, k)
	}
}
