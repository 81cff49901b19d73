package connectivity

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of triggers into one callback, fired after the
// quiet period elapses with no further trigger. Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	after time.Duration
	timer *time.Timer
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(after time.Duration) *Debouncer {
	return &Debouncer{after: after}
}

// Trigger schedules fn to run once the quiet period elapses. A trigger while
// one is already scheduled replaces it and restarts the period.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.after, fn)
}

// Cancel drops any scheduled callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
