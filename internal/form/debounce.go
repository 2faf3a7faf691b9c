package form

import (
	"sync"
	"time"

	"github.com/yndnr/tokgate/internal/infra/clock"
)

// Debouncer runs fn with the latest scheduled arguments once delay has
// passed without another Schedule. Earlier pending calls are dropped.
type Debouncer[T any] struct {
	mu    sync.Mutex
	clock clock.Clock
	delay time.Duration
	fn    func(T)

	timer clock.Timer
	args  T
	seq   uint64
}

// NewDebouncer creates a Debouncer.
func NewDebouncer[T any](c clock.Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{clock: c, delay: delay, fn: fn}
}

// Schedule replaces any pending call with args.
func (d *Debouncer[T]) Schedule(args T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.args = args
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(seq)
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs the pending call now. It returns false if nothing was
// pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return false
	}
	args := d.args
	d.stopLocked()
	d.mu.Unlock()

	d.fn(args)
	return true
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if d.timer == nil || d.seq != seq {
		d.mu.Unlock()
		return
	}
	args := d.args
	d.timer = nil
	d.seq++
	var zero T
	d.args = zero
	d.mu.Unlock()

	d.fn(args)
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	var zero T
	d.args = zero
}
