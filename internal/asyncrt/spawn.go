package asyncrt

import (
	"deprio/internal/future"
	"deprio/internal/priority"
	"deprio/internal/trace"
)

type spawnOptions struct {
	name        string
	prio        uint
	prioritized bool
}

// SpawnOption configures a task at spawn time.
type SpawnOption func(*spawnOptions)

// WithName labels the task in stats and trace output.
func WithName(name string) SpawnOption {
	return func(o *spawnOptions) {
		o.name = name
	}
}

// WithPriority wraps the spawned future in priority.New(f, prio).
func WithPriority(prio uint) SpawnOption {
	return func(o *spawnOptions) {
		o.prio = prio
		o.prioritized = true
	}
}

// Handle gives typed access to a spawned task.
type Handle[T any] struct {
	exec  *Executor
	id    TaskID
	value T    // guarded by exec.mu
	ready bool // guarded by exec.mu
}

// ID returns the task ID.
func (h *Handle[T]) ID() TaskID { return h.id }

// Result returns the task's value once it completed. Safe from any
// goroutine, including while Run is polling.
func (h *Handle[T]) Result() (T, bool) {
	h.exec.mu.Lock()
	defer h.exec.mu.Unlock()
	return h.value, h.ready
}

// Done reports whether the task completed or was cancelled.
func (h *Handle[T]) Done() bool {
	task, ok := h.exec.Task(h.id)
	return ok && task.Status == TaskDone
}

// Cancelled reports whether the task was cancelled before completing.
func (h *Handle[T]) Cancelled() bool {
	task, ok := h.exec.Task(h.id)
	return ok && task.Cancelled
}

// Cancel cancels the task. See Executor.Cancel.
func (h *Handle[T]) Cancel() {
	h.exec.Cancel(h.id)
}

// Spawn registers f as a new task and enqueues it for its first poll.
// Spawn may be called from inside a running task.
func Spawn[T any](e *Executor, f future.Future[T], opts ...SpawnOption) *Handle[T] {
	var o spawnOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.prioritized {
		f = priority.New(f, o.prio)
	}

	h := &Handle[T]{exec: e}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	h.id = id
	task := &Task{
		ID:     id,
		Name:   o.name,
		Status: TaskReady,
		poll: func(w future.Waker) bool {
			v, ok := f.Poll(w).Value()
			if ok {
				e.mu.Lock()
				h.value = v
				h.ready = true
				e.mu.Unlock()
			}
			return ok
		},
		drop:  func() { future.Drop(f) },
		waker: &taskWaker{exec: e, id: id},
	}
	e.tasks[id] = task
	e.live++
	e.enqueueLocked(id)
	e.mu.Unlock()

	trace.Point(e.tracer, trace.ScopeTask, "spawn", uint64(id), 0, o.name)
	e.notify()
	return h
}
