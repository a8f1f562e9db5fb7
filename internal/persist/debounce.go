package persist

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Trigger calls into a single fire after the
// configured quiet interval. In-memory state stays authoritative between
// fires; Flush forces any pending fire immediately.
type Debouncer struct {
	interval time.Duration
	fire     func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	closed  bool
}

// NewDebouncer constructs a debouncer invoking fire after interval of quiet.
func NewDebouncer(interval time.Duration, fire func()) *Debouncer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Debouncer{interval: interval, fire: fire}
}

// Trigger schedules a fire, resetting the quiet interval.
func (d *Debouncer) Trigger() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.interval, d.fired)
		return
	}
	d.timer.Reset(d.interval)
}

func (d *Debouncer) fired() {
	d.mu.Lock()
	if d.closed || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()
	d.fire()
}

// Flush fires immediately if a trigger is pending.
func (d *Debouncer) Flush() {
	if d == nil {
		return
	}
	d.mu.Lock()
	pending := d.pending
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	if pending {
		d.fire()
	}
}

// Close flushes any pending fire and stops future triggers.
func (d *Debouncer) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	pending := d.pending
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	if pending {
		d.fire()
	}
}
