package scenario

import (
	"deprio/internal/future"
	"deprio/internal/priority"
	"deprio/internal/testkit"
)

// probe is the spawned future of one task. It counts every attempt the
// executor makes and forwards it to the priority wrapper around a stepper.
type probe struct {
	scenario string
	task     Task
	sink     Sink
	wrapped  *priority.Priority[struct{}]

	attempts   uint64
	inner      []uint64 // attempt number of every forwarded poll
	counterErr error
}

func newProbe(scenario string, task Task, sink Sink) *probe {
	p := &probe{scenario: scenario, task: task, sink: sink}
	p.wrapped = priority.New[struct{}](&stepper{p: p}, task.Prio)
	return p
}

func (p *probe) Poll(w future.Waker) future.Poll[struct{}] {
	p.attempts++
	res := p.wrapped.Poll(w)
	if p.counterErr == nil {
		p.counterErr = testkit.CheckCounter(p.task.Prio, p.wrapped.Waited())
	}
	return res
}

func (p *probe) Drop() { p.wrapped.Drop() }

func (p *probe) emit(status Status) {
	p.sink.OnEvent(Event{
		Scenario:   p.scenario,
		Task:       p.task.Name,
		Status:     status,
		Attempts:   p.attempts,
		InnerPolls: len(p.inner),
		Steps:      p.task.Steps,
	})
}

// stepper is the inner future: ready on its Steps-th poll, always re-waking
// before that.
type stepper struct {
	p *probe
}

func (s *stepper) Poll(w future.Waker) future.Poll[struct{}] {
	p := s.p
	p.inner = append(p.inner, p.attempts)
	if !p.task.Endless() && uint(len(p.inner)) >= p.task.Steps {
		p.emit(StatusDone)
		return future.Ready(struct{}{})
	}
	p.emit(StatusRunning)
	w.Wake()
	return future.Pending[struct{}]()
}
