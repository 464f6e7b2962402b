package scenario

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"deprio/internal/report"
	"deprio/internal/trace"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func taskReport(t *testing.T, rep *report.Report, name string) report.TaskReport {
	t.Helper()
	for _, tr := range rep.Tasks {
		if tr.Name == name {
			return tr
		}
	}
	t.Fatalf("task %q missing from report", name)
	return report.TaskReport{}
}

func equalAttempts(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunCadence(t *testing.T) {
	sc := &Scenario{
		Name:     "cadence",
		MaxPolls: 1000,
		Tasks: []Task{
			{Name: "immediate", Prio: 0, Steps: 1},
			{Name: "skip-one", Prio: 1, Steps: 1},
			{Name: "skip-two", Prio: 2, Steps: 1},
			{Name: "deferred", Prio: 5, Steps: 3},
		},
	}
	rep, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Exhausted {
		t.Fatalf("run should finish within the budget")
	}
	want := map[string]uint64{"immediate": 1, "skip-one": 2, "skip-two": 3, "deferred": 18}
	for name, attempts := range want {
		tr := taskReport(t, rep, name)
		if !tr.Completed || tr.Attempts != attempts {
			t.Fatalf("%s: want completion on attempt %d, got %+v", name, attempts, tr)
		}
	}
	if got := taskReport(t, rep, "deferred").InnerAttempts; !equalAttempts(got, []uint64{6, 12, 18}) {
		t.Fatalf("deferred: want inner polls on attempts [6 12 18], got %v", got)
	}
	if err := Check(rep); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestRunCompletionOrder(t *testing.T) {
	sc := &Scenario{
		Name:     "order",
		MaxPolls: 1000,
		Tasks: []Task{
			{Name: "low", Prio: 3, Steps: 2},
			{Name: "high", Prio: 0, Steps: 2},
		},
	}
	rep, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o := taskReport(t, rep, "high").Order; o != 1 {
		t.Fatalf("high should complete first, got order %d", o)
	}
	if o := taskReport(t, rep, "low").Order; o != 2 {
		t.Fatalf("low should complete second, got order %d", o)
	}
	if rep.Completed() != 2 {
		t.Fatalf("want 2 completed, got %d", rep.Completed())
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	sc := &Scenario{
		Name:     "endless",
		MaxPolls: 40,
		Tasks: []Task{
			{Name: "bg", Prio: 3, Steps: 0},
			{Name: "fg", Prio: 0, Steps: 2},
		},
	}
	rep, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Exhausted || rep.Polls != 40 {
		t.Fatalf("want exhausted after 40 polls, got exhausted=%v polls=%d", rep.Exhausted, rep.Polls)
	}
	bg := taskReport(t, rep, "bg")
	if bg.Completed || bg.Attempts != 38 {
		t.Fatalf("bg: want 38 attempts and live, got %+v", bg)
	}
	if bg.InnerPolls() != 9 {
		t.Fatalf("bg: want 9 inner polls, got %d", bg.InnerPolls())
	}
	if err := Check(rep); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestRunFuzzKeepsCadence(t *testing.T) {
	sc := &Scenario{
		Name:     "fuzz",
		Fuzz:     true,
		Seed:     7,
		MaxPolls: 5000,
		Tasks: []Task{
			{Name: "a", Prio: 0, Steps: 5},
			{Name: "b", Prio: 2, Steps: 5},
			{Name: "c", Prio: 4, Steps: 5},
			{Name: "d", Prio: 1, Steps: 0},
		},
	}
	first, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := Check(first); err != nil {
		t.Fatalf("Check: %v", err)
	}
	second, err := Run(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := range first.Tasks {
		if first.Tasks[i].DoneSeq != second.Tasks[i].DoneSeq {
			t.Fatalf("same seed should reproduce the run: %+v vs %+v", first.Tasks[i], second.Tasks[i])
		}
	}
}

func TestRunEvents(t *testing.T) {
	sink := &recordingSink{}
	sc := &Scenario{Name: "ev", MaxPolls: 10, Tasks: []Task{{Name: "t", Prio: 1, Steps: 2}}}
	if _, err := Run(context.Background(), sc, sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var got []string
	for _, ev := range sink.events {
		got = append(got, ev.Task+":"+string(ev.Status))
	}
	want := []string{":running", "t:running", "t:done", ":done"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("want events %v, got %v", want, got)
	}
	if last := sink.events[2]; last.Attempts != 4 || last.InnerPolls != 2 {
		t.Fatalf("done event should carry counters, got %+v", last)
	}
}

func TestRunTracesFromContext(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelRun)
	ctx := trace.WithTracer(context.Background(), ring)
	sc := &Scenario{Name: "traced", MaxPolls: 10, Tasks: []Task{{Name: "t", Steps: 1}}}
	if _, err := Run(ctx, sc, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, ev := range ring.Snapshot() {
		if ev.Name == "scenario" && ev.Kind == trace.KindSpanEnd {
			found = ev.Extra["name"] == "traced" && ev.Detail == "done"
		}
	}
	if !found {
		t.Fatalf("scenario span end missing from trace: %+v", ring.Snapshot())
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &Scenario{Name: "c", MaxPolls: 10, Tasks: []Task{{Name: "t", Steps: 1}}}
	if _, err := Run(ctx, sc, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestRunAll(t *testing.T) {
	scenarios := make([]*Scenario, 0, 6)
	for i := range 6 {
		sc := Sample("sample")
		sc.Name = sc.Name + string(rune('a'+i))
		scenarios = append(scenarios, sc)
	}
	sink := &recordingSink{}
	reports, err := RunAll(context.Background(), scenarios, 3, sink)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(reports) != len(scenarios) {
		t.Fatalf("want %d reports, got %d", len(scenarios), len(reports))
	}
	for i, rep := range reports {
		if rep.Scenario != scenarios[i].Name {
			t.Fatalf("report %d: want scenario %q, got %q", i, scenarios[i].Name, rep.Scenario)
		}
		if !rep.Exhausted {
			t.Fatalf("sample has an endless task and should exhaust its budget")
		}
		if got := taskReport(t, rep, "deferred").Attempts; got != 18 {
			t.Fatalf("deferred: want 18 attempts, got %d", got)
		}
		if err := Check(rep); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}
	queued := 0
	for _, ev := range sink.events {
		if ev.Status == StatusQueued {
			queued++
		}
	}
	if queued != len(scenarios) {
		t.Fatalf("want %d queued events, got %d", len(scenarios), queued)
	}
}

func TestCheckReportsBrokenCadence(t *testing.T) {
	rep := &report.Report{
		Scenario: "broken",
		Tasks: []report.TaskReport{
			{Name: "x", Prio: 2, Attempts: 4, InnerAttempts: []uint64{2}},
		},
	}
	err := Check(rep)
	if err == nil || !strings.Contains(err.Error(), "broken: task x") {
		t.Fatalf("want cadence error naming the task, got %v", err)
	}
}

func TestCheckMaxPrio(t *testing.T) {
	rep := &report.Report{
		Scenario: "max",
		Tasks: []report.TaskReport{
			{Name: "starved", Prio: math.MaxUint, Attempts: 12},
		},
	}
	if err := Check(rep); err != nil {
		t.Fatalf("a task that was never forwarded is consistent at max prio: %v", err)
	}
	rep.Tasks[0].Completed = true
	if err := Check(rep); err == nil {
		t.Fatalf("completion at max prio without an inner poll must fail")
	}
}
