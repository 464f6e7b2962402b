package asyncrt

import (
	"context"
	"strconv"

	"deprio/internal/future"
	"deprio/internal/trace"
)

// Run polls ready tasks until every task is done.
//
// When live tasks remain but none is ready, Run waits for a waker to fire
// from another goroutine, unless Config.FailOnIdle is set. It returns
// ctx.Err() when the context ends first, and ErrPollBudgetExceeded once
// Config.MaxPolls polls have been made while work is still ready.
// Run must not be called concurrently with itself or with Step.
func (e *Executor) Run(ctx context.Context) error {
	span := trace.Begin(e.tracer, trace.ScopeRun, "run", 0)
	err := e.run(ctx, span.ID())
	stats := e.Stats()
	span.WithExtra("polls", strconv.FormatUint(stats.Polls, 10))
	span.WithExtra("live", strconv.Itoa(stats.Live))
	if err != nil {
		trace.Error(e.tracer, trace.ScopeRun, "run", err)
		span.End(err.Error())
		return err
	}
	span.End("")
	return nil
}

func (e *Executor) run(ctx context.Context, parent uint64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.mu.Lock()
		if e.cfg.MaxPolls > 0 && e.polls >= e.cfg.MaxPolls && e.hasReadyLocked() {
			e.mu.Unlock()
			return ErrPollBudgetExceeded
		}
		id, ok := e.nextReadyLocked()
		live := e.live
		e.mu.Unlock()

		if ok {
			e.pollTask(id, parent)
			continue
		}
		if live == 0 {
			return nil
		}
		if e.cfg.FailOnIdle {
			return ErrDeadlock
		}

		select {
		case <-e.notifyCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Step polls a single ready task. It reports false when no task was ready.
func (e *Executor) Step() bool {
	e.mu.Lock()
	id, ok := e.nextReadyLocked()
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.pollTask(id, 0)
	return true
}

func (e *Executor) hasReadyLocked() bool {
	for _, id := range e.ready {
		if task := e.tasks[id]; task != nil && task.Status != TaskDone {
			return true
		}
	}
	return false
}

func (e *Executor) pollTask(id TaskID, parent uint64) {
	e.mu.Lock()
	task := e.tasks[id]
	if task == nil || task.Status == TaskDone || task.poll == nil {
		e.mu.Unlock()
		return
	}
	task.Status = TaskRunning
	task.Polls++
	e.polls++
	seq := e.polls
	e.current = id
	poll := task.poll
	waker := task.waker
	e.mu.Unlock()

	ready := poll(waker)

	e.mu.Lock()
	e.current = 0
	// A task cancelled from inside its own poll stays cancelled.
	if task.Status == TaskDone {
		e.mu.Unlock()
		return
	}
	switch {
	case ready:
		task.Status = TaskDone
		task.DoneSeq = seq
		task.poll = nil
		task.drop = nil
		e.live--
	case e.queuedLocked(id):
		task.Status = TaskReady
	default:
		task.Status = TaskWaiting
	}
	e.mu.Unlock()

	if e.tracer.Enabled() {
		outcome := "pending"
		if ready {
			outcome = "ready"
		}
		trace.Point(e.tracer, trace.ScopePoll, "poll", uint64(id), parent, outcome)
		if ready {
			trace.Point(e.tracer, trace.ScopeTask, "done", uint64(id), parent, task.Name)
		}
	}
}

func (e *Executor) queuedLocked(id TaskID) bool {
	_, ok := e.readySet[id]
	return ok
}

// BlockOn runs f to completion on a fresh executor and returns its value.
func BlockOn[T any](ctx context.Context, f future.Future[T], opts ...Option) (T, error) {
	e := NewExecutor(Config{}, opts...)
	h := Spawn(e, f)
	if err := e.Run(ctx); err != nil {
		var zero T
		return zero, err
	}
	v, _ := h.Result()
	return v, nil
}
