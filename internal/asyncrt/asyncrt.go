// Package asyncrt is a single-threaded cooperative executor for futures.
//
// Tasks are polled one at a time from a FIFO ready queue. A task re-enters
// the queue only when its waker is called; wakes are coalesced, so a task is
// queued at most once. Fuzz mode picks the next ready task with a seeded
// random generator to produce reproducible alternative interleavings.
//
// Wakers may be called from any goroutine. Run blocks when live tasks remain
// but none is ready, until a waker fires or the context is done.
package asyncrt

import (
	"errors"
	"math/rand"
	"sort"
	"sync"

	"deprio/internal/future"
	"deprio/internal/trace"
)

var (
	// ErrPollBudgetExceeded is returned by Run when Config.MaxPolls polls
	// have been made and tasks are still ready.
	ErrPollBudgetExceeded = errors.New("asyncrt: poll budget exceeded")

	// ErrDeadlock is returned by Run with Config.FailOnIdle when live tasks
	// remain but none is ready.
	ErrDeadlock = errors.New("asyncrt: no ready tasks but live tasks remain")
)

// TaskID identifies a spawned task.
type TaskID uint64

// TaskStatus describes task scheduling state.
type TaskStatus uint8

const (
	TaskReady TaskStatus = iota
	TaskRunning
	TaskWaiting
	TaskDone
)

// String returns the string representation of TaskStatus.
func (s TaskStatus) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskWaiting:
		return "waiting"
	case TaskDone:
		return "done"
	default:
		return "unknown"
	}
}

// Task is a snapshot of executor-visible task state.
type Task struct {
	ID        TaskID
	Name      string
	Status    TaskStatus
	Cancelled bool
	Polls     uint64 // scheduling attempts made on this task
	Wakes     uint64 // wakes received, including coalesced ones
	DoneSeq   uint64 // executor poll number on which the task completed, 0 while live

	poll  func(w future.Waker) bool
	drop  func()
	waker *taskWaker
}

// Config configures executor scheduling behavior.
type Config struct {
	Fuzz       bool   // pick ready tasks at random instead of FIFO
	Seed       uint64 // fuzz seed, 0 is treated as 1
	MaxPolls   uint64 // stop with ErrPollBudgetExceeded after this many polls, 0 = unlimited
	FailOnIdle bool   // return ErrDeadlock instead of waiting for external wakes
}

// Option configures an Executor.
type Option func(*Executor)

// WithTracer sets the tracer receiving run, task and poll events.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Executor runs futures as tasks on the goroutine that calls Run.
type Executor struct {
	cfg    Config
	tracer trace.Tracer
	rng    *rand.Rand

	mu       sync.Mutex
	nextID   TaskID
	ready    []TaskID
	readySet map[TaskID]struct{}
	tasks    map[TaskID]*Task
	live     int
	polls    uint64
	current  TaskID
	notifyCh chan struct{}
}

// NewExecutor constructs an executor with the provided configuration.
func NewExecutor(cfg Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:      cfg,
		tracer:   trace.Nop,
		nextID:   1,
		readySet: make(map[TaskID]struct{}),
		tasks:    make(map[TaskID]*Task),
		notifyCh: make(chan struct{}, 1),
	}
	if cfg.Fuzz {
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		e.rng = rand.New(rand.NewSource(int64(seed))) //nolint:gosec // deterministic scheduler seed
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the ID of the task being polled, 0 outside a poll.
func (e *Executor) Current() TaskID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Task returns a snapshot of a task by ID.
func (e *Executor) Task(id TaskID) (Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	task := e.tasks[id]
	if task == nil {
		return Task{}, false
	}
	return task.snapshot(), true
}

// Len returns the number of tasks that are not done.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Stats summarizes an executor.
type Stats struct {
	Polls uint64
	Live  int
	Tasks []Task // ordered by ID
}

// Stats returns total polls and a snapshot of every task.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := Stats{
		Polls: e.polls,
		Live:  e.live,
		Tasks: make([]Task, 0, len(e.tasks)),
	}
	for _, task := range e.tasks {
		out.Tasks = append(out.Tasks, task.snapshot())
	}
	sort.Slice(out.Tasks, func(i, j int) bool { return out.Tasks[i].ID < out.Tasks[j].ID })
	return out
}

// Wake enqueues a task if it is not done. Safe from any goroutine.
func (e *Executor) Wake(id TaskID) {
	e.mu.Lock()
	task := e.tasks[id]
	if task == nil || task.Status == TaskDone {
		e.mu.Unlock()
		return
	}
	task.Wakes++
	e.enqueueLocked(id)
	e.mu.Unlock()
	e.notify()
}

// Cancel drops a live task: it is marked done and cancelled and its future
// is released without being polled again.
func (e *Executor) Cancel(id TaskID) {
	e.mu.Lock()
	task := e.tasks[id]
	if task == nil || task.Status == TaskDone {
		e.mu.Unlock()
		return
	}
	task.Status = TaskDone
	task.Cancelled = true
	drop := task.drop
	task.poll = nil
	task.drop = nil
	e.live--
	e.mu.Unlock()

	if drop != nil {
		drop()
	}
	trace.Point(e.tracer, trace.ScopeTask, "cancel", uint64(id), 0, task.Name)
	e.notify()
}

func (e *Executor) enqueueLocked(id TaskID) {
	if _, ok := e.readySet[id]; ok {
		return
	}
	e.ready = append(e.ready, id)
	e.readySet[id] = struct{}{}
	if task := e.tasks[id]; task != nil && task.Status != TaskDone {
		task.Status = TaskReady
	}
}

func (e *Executor) notify() {
	select {
	case e.notifyCh <- struct{}{}:
	default:
	}
}

// nextReadyLocked pops the next ready task according to scheduler policy,
// skipping tasks that finished while queued.
func (e *Executor) nextReadyLocked() (TaskID, bool) {
	for len(e.ready) > 0 {
		idx := 0
		if e.rng != nil {
			idx = e.rng.Intn(len(e.ready))
		}
		id := e.ready[idx]
		copy(e.ready[idx:], e.ready[idx+1:])
		e.ready = e.ready[:len(e.ready)-1]
		delete(e.readySet, id)
		task := e.tasks[id]
		if task == nil || task.Status == TaskDone {
			continue
		}
		return id, true
	}
	return 0, false
}

func (t *Task) snapshot() Task {
	return Task{
		ID:        t.ID,
		Name:      t.Name,
		Status:    t.Status,
		Cancelled: t.Cancelled,
		Polls:     t.Polls,
		Wakes:     t.Wakes,
		DoneSeq:   t.DoneSeq,
	}
}
