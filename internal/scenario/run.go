package scenario

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"deprio/internal/asyncrt"
	"deprio/internal/report"
	"deprio/internal/testkit"
	"deprio/internal/trace"
)

// Run simulates sc on a fresh executor and reports the cadence every task
// received. Hitting the poll budget is a normal stop that marks the report
// Exhausted. The tracer in ctx, if any, receives executor events.
func Run(ctx context.Context, sc *Scenario, sink Sink) (*report.Report, error) {
	if sc == nil {
		return nil, errors.New("scenario: nil scenario")
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	if sink == nil {
		sink = NopSink{}
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeRun, "scenario", 0).WithExtra("name", sc.Name)

	exec := asyncrt.NewExecutor(asyncrt.Config{
		Fuzz:       sc.Fuzz,
		Seed:       sc.Seed,
		MaxPolls:   sc.MaxPolls,
		FailOnIdle: true,
	}, asyncrt.WithTracer(tracer))

	sink.OnEvent(Event{Scenario: sc.Name, Status: StatusRunning})
	probes := make([]*probe, len(sc.Tasks))
	handles := make([]*asyncrt.Handle[struct{}], len(sc.Tasks))
	for i, t := range sc.Tasks {
		probes[i] = newProbe(sc.Name, t, sink)
		handles[i] = asyncrt.Spawn[struct{}](exec, probes[i], asyncrt.WithName(t.Name))
	}

	exhausted := false
	if err := exec.Run(ctx); err != nil {
		if !errors.Is(err, asyncrt.ErrPollBudgetExceeded) {
			span.End(err.Error())
			sink.OnEvent(Event{Scenario: sc.Name, Status: StatusError, Err: err})
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		exhausted = true
	}

	rep := &report.Report{
		Schema:    report.SchemaVersion,
		Scenario:  sc.Name,
		Seed:      sc.Seed,
		Fuzz:      sc.Fuzz,
		MaxPolls:  sc.MaxPolls,
		Polls:     exec.Stats().Polls,
		Exhausted: exhausted,
		Tasks:     make([]report.TaskReport, len(sc.Tasks)),
	}
	for i, p := range probes {
		if p.counterErr != nil {
			span.End(p.counterErr.Error())
			return nil, fmt.Errorf("scenario %s: task %s: %w", sc.Name, p.task.Name, p.counterErr)
		}
		task, _ := exec.Task(handles[i].ID())
		_, completed := handles[i].Result()
		rep.Tasks[i] = report.TaskReport{
			Name:          p.task.Name,
			Prio:          p.task.Prio,
			Steps:         p.task.Steps,
			Attempts:      p.attempts,
			Completed:     completed,
			DoneSeq:       task.DoneSeq,
			InnerAttempts: p.inner,
		}
	}
	rankCompletion(rep.Tasks)

	status := StatusDone
	if exhausted {
		status = StatusExhausted
	}
	span.WithExtra("polls", fmt.Sprint(rep.Polls))
	span.End(string(status))
	sink.OnEvent(Event{Scenario: sc.Name, Status: status})
	return rep, nil
}

func rankCompletion(tasks []report.TaskReport) {
	done := make([]int, 0, len(tasks))
	for i := range tasks {
		if tasks[i].Completed {
			done = append(done, i)
		}
	}
	sort.Slice(done, func(a, b int) bool { return tasks[done[a]].DoneSeq < tasks[done[b]].DoneSeq })
	for rank, i := range done {
		tasks[i].Order = rank + 1
	}
}

// RunAll runs scenarios in parallel, at most jobs at a time (GOMAXPROCS when
// jobs <= 0). Reports come back in input order. The first failure cancels the
// remaining runs.
func RunAll(ctx context.Context, scenarios []*Scenario, jobs int, sink Sink) ([]*report.Report, error) {
	if sink == nil {
		sink = NopSink{}
	}
	if len(scenarios) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, sc := range scenarios {
		sink.OnEvent(Event{Scenario: sc.Name, Status: StatusQueued})
	}

	reports := make([]*report.Report, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(scenarios)))
	for i, sc := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := Run(gctx, sc, sink)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Check validates the cadence of every task in rep.
func Check(rep *report.Report) error {
	var errs []error
	for i := range rep.Tasks {
		t := &rep.Tasks[i]
		if err := testkit.CheckCadence(t.Prio, t.InnerAttempts, t.Attempts, t.Completed); err != nil {
			errs = append(errs, fmt.Errorf("%s: task %s: %w", rep.Scenario, t.Name, err))
		}
	}
	return errors.Join(errs...)
}
