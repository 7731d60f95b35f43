// Package util holds small concurrency helpers.
package util

import (
	"sync"
	"time"
)

// Debouncer fires once on C after it has been left alone for its duration.
// A new Debouncer is disarmed: nothing fires until the first Reset.
//
//	idle := NewDebouncer(5 * time.Minute)
//	defer idle.Stop()
//
//	idle.Reset()  // start counting
//	idle.Disarm() // busy again, do not fire
//	<-idle.C()    // quiet for the full duration
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer

	mu      sync.Mutex
	armed   bool
	stopped bool
}

// NewDebouncer creates a disarmed debouncer.
func NewDebouncer(duration time.Duration) *Debouncer {
	t := time.NewTimer(duration)
	t.Stop()
	return &Debouncer{duration: duration, timer: t}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Reset arms the debouncer and restarts the quiet period. No-op after Stop.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.drain()
	d.timer.Reset(d.duration)
	d.armed = true
}

// Disarm cancels a pending fire until the next Reset.
func (d *Debouncer) Disarm() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.drain()
	d.armed = false
}

// Armed reports whether a fire is pending.
func (d *Debouncer) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// C returns the channel the debouncer fires on.
func (d *Debouncer) C() <-chan time.Time {
	return d.timer.C
}

// Stop disarms the debouncer for good. Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.drain()
	d.armed = false
	d.stopped = true
}

// drain stops the timer and empties a stale tick. Caller holds d.mu.
func (d *Debouncer) drain() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
}
