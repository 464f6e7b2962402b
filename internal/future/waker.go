package future

// Waker is the scheduling-continuation handle passed to every poll.
//
// Wake requests another poll of the task that owns the waker. It is safe to
// call from any goroutine and any number of times; a scheduler may coalesce
// repeated wakes into a single poll.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to Waker.
type WakerFunc func()

// Wake calls f.
func (f WakerFunc) Wake() {
	if f != nil {
		f()
	}
}

type noopWaker struct{}

func (noopWaker) Wake() {}

// NoopWaker ignores every wake request. Useful when polling by hand.
var NoopWaker Waker = noopWaker{}
