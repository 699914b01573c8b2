// Package debounce delays values until input has been quiet for a window.
package debounce

import (
	"sync"
	"time"
)

// Debouncer emits the last pushed value once no new value arrived for delay.
// Emissions are trailing only; a superseded value is never delivered.
// Safe for concurrent use.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
}

// New creates a Debouncer calling fn with the settled value.
// fn runs on its own goroutine.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Push cancels any pending emission and schedules v.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, v) })
}

// Stop discards the pending emission, if any.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}

// Pending reports whether an emission is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Delay returns the quiet window.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	// A timer that already started running cannot be stopped; the
	// generation check drops it when Push or Stop happened since.
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}
