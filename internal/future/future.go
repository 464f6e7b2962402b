// Package future defines the poll-based future capability used across deprio.
//
// A Future is inert: it makes progress only when polled. Each poll either
// yields a final value or reports that the future is still pending. A pending
// future that wants to be polled again arranges for the supplied Waker to be
// called, either right away or once whatever it waits on becomes ready.
//
// Polling a future again after it returned a ready value is a contract
// violation. Nothing in this package guards against it.
package future

import "fmt"

// Poll is the outcome of polling a Future once.
type Poll[T any] struct {
	value T
	ready bool
}

// Ready builds a completed outcome carrying v.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{value: v, ready: true}
}

// Pending builds a not-yet-done outcome.
func Pending[T any]() Poll[T] {
	return Poll[T]{}
}

// IsReady reports whether the future produced its final value.
func (p Poll[T]) IsReady() bool { return p.ready }

// IsPending reports whether the future is not done yet.
func (p Poll[T]) IsPending() bool { return !p.ready }

// Value returns the final value and true, or the zero value and false while pending.
func (p Poll[T]) Value() (T, bool) {
	return p.value, p.ready
}

// String returns "pending" or "ready(<value>)".
func (p Poll[T]) String() string {
	if !p.ready {
		return "pending"
	}
	return fmt.Sprintf("ready(%v)", p.value)
}

// Future is a suspendable computation producing a value of type T.
type Future[T any] interface {
	// Poll asks the future to make progress. It must never block.
	// A pending future is responsible for making sure w is called when it
	// should be polled again; only the most recent waker needs to be used.
	Poll(w Waker) Poll[T]
}

// Func adapts a plain function to Future.
type Func[T any] func(w Waker) Poll[T]

// Poll calls f(w).
func (f Func[T]) Poll(w Waker) Poll[T] {
	return f(w)
}
