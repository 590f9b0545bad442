// Package watcher provides the debounced re-render trigger and the
// campaign directory watcher that feeds external edits into the event
// bus.
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounce is the re-render coalescing window. Change bursts
// (several item updates in one transaction) inside this window produce
// a single render.
const DefaultDebounce = 60 * time.Millisecond

// Debouncer coalesces rapid triggers into one callback. It is
// single-flight: scheduling while a callback is pending cancels and
// replaces the pending one, never stacks.
type Debouncer struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates a Debouncer; a zero duration means
// DefaultDebounce.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration == 0 {
		duration = DefaultDebounce
	}
	return &Debouncer{duration: duration}
}

// Trigger schedules callback after the debounce window, replacing any
// pending schedule.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// The seq guard catches the race where Stop returned false
		// because the timer already fired and the stale callback is
		// about to run concurrently with a newer schedule.
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		callback()
	})
}

// Cancel drops any pending callback. After Cancel returns, no
// previously scheduled callback will run.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a callback is currently scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Duration returns the debounce window.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
