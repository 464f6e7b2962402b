package asyncrt

import "deprio/internal/future"

// taskWaker is the future.Waker handed to a task on every poll.
// It is created once per task, so the same waker is passed each time.
type taskWaker struct {
	exec *Executor
	id   TaskID
}

var _ future.Waker = (*taskWaker)(nil)

// Wake requeues the owning task.
func (w *taskWaker) Wake() {
	w.exec.Wake(w.id)
}

// WakerFor returns the waker for a task, or nil if the id is unknown.
// It lets code outside the poll path (timers, I/O callbacks, other
// goroutines) request a poll for a specific task.
func (e *Executor) WakerFor(id TaskID) future.Waker {
	e.mu.Lock()
	defer e.mu.Unlock()
	task := e.tasks[id]
	if task == nil {
		return nil
	}
	return task.waker
}
