// Package highlight tracks the short "new question" window that follows a
// successful submission.
package highlight

import (
	"sync"
	"time"
)

// DefaultWindow is how long the newest item stays highlighted.
const DefaultWindow = 2 * time.Second

// Tracker holds the highlight state. The window is a scheduled task owned by
// the tracker; Stop cancels it with the view.
type Tracker struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	active  bool
	stopped bool
	changes chan struct{}
}

// New builds a tracker. A non-positive window uses DefaultWindow.
func New(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window:  window,
		changes: make(chan struct{}, 1),
	}
}

// Window returns the highlight duration.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// Arm starts the highlight window, restarting it when already active.
func (t *Tracker) Arm() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.active = true
	t.timer = time.AfterFunc(t.window, func() { t.expire(gen) })
	t.mu.Unlock()
	t.notify()
}

// Active reports whether the highlight window is open.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Stop cancels the pending clear and disables further arming.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.active = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Changes signals when the highlight turns on or off. At most one signal is buffered.
func (t *Tracker) Changes() <-chan struct{} {
	return t.changes
}

func (t *Tracker) expire(gen uint64) {
	t.mu.Lock()
	// A newer Arm or a Stop superseded this timer.
	if gen != t.gen || !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.timer = nil
	t.mu.Unlock()
	t.notify()
}

func (t *Tracker) notify() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}
