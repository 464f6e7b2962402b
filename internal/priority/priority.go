// Package priority provides a future combinator that lowers how often the
// wrapped future is polled.
//
// A Priority with prio = k forwards only every (k+1)-th poll to the inner
// future. On the k polls in between it wakes itself and reports pending, so
// the scheduler keeps coming back without the inner future doing any work.
// Priority 0 forwards every poll and behaves exactly like the inner future.
//
// The throttle is a local counter. It knows nothing about other tasks and
// nothing about time; it only counts scheduling attempts.
package priority

import "deprio/internal/future"

// Priority wraps a future and skips polls according to its priority.
//
// A Priority is only ever used through the pointer returned by New. The
// inner future stays at that address for the lifetime of the combinator and
// cannot be taken back out.
type Priority[T any] struct {
	inner  future.Future[T]
	prio   uint
	waited uint
}

// New wraps inner so that it is polled once every prio+1 attempts.
// It does not poll inner.
func New[T any](inner future.Future[T], prio uint) *Priority[T] {
	return &Priority[T]{
		inner: inner,
		prio:  prio,
	}
}

// WithPriority is New under the name used at call sites that read
// left-to-right, e.g. priority.WithPriority(fetch, 3).
func WithPriority[T any](inner future.Future[T], prio uint) *Priority[T] {
	return New(inner, prio)
}

// Poll implements future.Future.
func (p *Priority[T]) Poll(w future.Waker) future.Poll[T] {
	if p.waited >= p.prio {
		p.waited = 0
		return p.inner.Poll(w)
	}
	p.waited++
	w.Wake()
	return future.Pending[T]()
}

// Prio returns the configured number of polls skipped between forwards.
func (p *Priority[T]) Prio() uint { return p.prio }

// Waited returns how many polls have been skipped since inner was last polled.
func (p *Priority[T]) Waited() uint { return p.waited }

// Drop releases the inner future if it implements future.Dropper.
func (p *Priority[T]) Drop() {
	future.Drop(p.inner)
}
