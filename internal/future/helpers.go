package future

// Dropper is implemented by futures that hold resources which must be
// released if the future is abandoned before completion.
type Dropper interface {
	Drop()
}

// Drop releases f if it implements Dropper. Other values are left alone.
func Drop(f any) {
	if d, ok := f.(Dropper); ok {
		d.Drop()
	}
}

type done[T any] struct {
	value T
}

func (f *done[T]) Poll(Waker) Poll[T] {
	return Ready(f.value)
}

// Done returns a future that is ready with v on its first poll.
func Done[T any](v T) Future[T] {
	return &done[T]{value: v}
}

type yieldNow struct {
	polled bool
}

func (f *yieldNow) Poll(w Waker) Poll[struct{}] {
	if f.polled {
		return Ready(struct{}{})
	}
	f.polled = true
	w.Wake()
	return Pending[struct{}]()
}

// YieldNow returns a future that gives the scheduler one turn: the first
// poll wakes itself and reports pending, the second poll is ready.
func YieldNow() Future[struct{}] {
	return &yieldNow{}
}

// CountdownFuture stays pending for a fixed number of polls, waking itself
// every time, then yields its value.
type CountdownFuture[T any] struct {
	remaining int
	polls     int
	value     T
}

// Countdown returns a future that reports pending on its first n polls and
// is ready with v on poll n+1.
func Countdown[T any](n int, v T) *CountdownFuture[T] {
	if n < 0 {
		n = 0
	}
	return &CountdownFuture[T]{remaining: n, value: v}
}

// Poll implements Future.
func (f *CountdownFuture[T]) Poll(w Waker) Poll[T] {
	f.polls++
	if f.remaining == 0 {
		return Ready(f.value)
	}
	f.remaining--
	w.Wake()
	return Pending[T]()
}

// Polls reports how many times the future has been polled.
func (f *CountdownFuture[T]) Polls() int {
	return f.polls
}

type never[T any] struct{}

func (never[T]) Poll(Waker) Poll[T] {
	return Pending[T]()
}

// Never returns a future that is always pending and never wakes.
func Never[T any]() Future[T] {
	return never[T]{}
}
