// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package debounce settles a rapidly changing value after a quiet period.

A [Debouncer] keeps two named values: the raw value (what the user is typing
right now) and the settled value (what the rest of the system reacts to). The
settled value only follows the raw value once the raw value has stayed
unchanged for the full delay.

Usage:

	d := debounce.New(300*time.Millisecond, "", func(query string) {
	    session.SetSearchQuery(query)
	})
	defer d.Stop()

	d.Set("m")
	d.Set("mi")
	d.Set("mickey") // only "mickey" reaches the callback
*/
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays propagation of a value until it stops changing.
//
// # Concurrency
//
// All methods are safe for concurrent use. The settle callback runs on the
// timer goroutine (or synchronously inside [Debouncer.Set] and
// [Debouncer.Flush]) and never while the state lock is held.
//
// Callbacks are serialized and always carry the latest settled value, so the
// last value delivered is the settled one. The callback must not call
// [Debouncer.Stop].
type Debouncer[T comparable] struct {
	mu       sync.Mutex
	delay    time.Duration
	onSettle func(T)

	raw     T
	settled T
	timer   *time.Timer

	// seq identifies the currently scheduled timer. A timer that fires after
	// being superseded or stopped sees a different seq and does nothing.
	seq     uint64
	stopped bool

	// version counts changes to settled.
	version uint64

	// deliverMu orders callbacks; delivered is the version last handed to
	// onSettle and is guarded by deliverMu.
	deliverMu sync.Mutex
	delivered uint64
}

// New creates a [Debouncer] whose raw and settled values start at initial.
//
// onSettle may be nil when callers only poll [Debouncer.Settled].
func New[T comparable](delay time.Duration, initial T, onSettle func(T)) *Debouncer[T] {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{
		delay:    delay,
		onSettle: onSettle,
		raw:      initial,
		settled:  initial,
	}
}

// Set records a new raw value and (re)starts the quiet-period timer.
//
// Setting the value that is already pending is a no-op. Setting the value
// back to the settled one cancels the pending update.
func (d *Debouncer[T]) Set(value T) {
	d.mu.Lock()

	if d.stopped || value == d.raw {
		d.mu.Unlock()
		return
	}

	d.raw = value
	d.cancelLocked()

	if value == d.settled {
		d.mu.Unlock()
		return
	}

	if d.delay == 0 {
		d.settleLocked()
		d.mu.Unlock()
		d.deliver()
		return
	}

	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
	d.mu.Unlock()
}

// Flush settles the pending raw value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.cancelLocked()
	d.settleLocked()
	d.mu.Unlock()

	d.deliver()
}

// Raw returns the most recent value passed to [Debouncer.Set].
func (d *Debouncer[T]) Raw() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// Settled returns the current settled value.
func (d *Debouncer[T]) Settled() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Pending reports whether a settle is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending timer and waits for a running callback. After
// Stop returns, the settle callback is never invoked again and further calls
// to Set are ignored.
func (d *Debouncer[T]) Stop() {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// fire is the timer callback for the timer identified by seq.
func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.seq++
	d.settleLocked()
	d.mu.Unlock()

	d.deliver()
}

// settleLocked promotes the raw value to the settled one.
func (d *Debouncer[T]) settleLocked() {
	d.settled = d.raw
	d.version++
}

// deliver hands the current settled value to the callback unless that
// version was already delivered. A caller that lost the race to a newer
// settle delivers nothing.
func (d *Debouncer[T]) deliver() {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	if d.stopped || d.onSettle == nil || d.version == d.delivered {
		d.mu.Unlock()
		return
	}
	value, version := d.settled, d.version
	d.mu.Unlock()

	d.onSettle(value)
	d.delivered = version
}

// cancelLocked stops the scheduled timer and invalidates its seq.
func (d *Debouncer[T]) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
