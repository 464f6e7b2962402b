package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"deprio/internal/scenario"
)

func newTestModel() *progressModel {
	sc := &scenario.Scenario{
		Name:     "s",
		MaxPolls: 100,
		Tasks: []scenario.Task{
			{Name: "fg", Prio: 0, Steps: 4},
			{Name: "bg", Prio: 2, Steps: 0},
		},
	}
	return NewProgressModel("deprio run", []*scenario.Scenario{sc}, nil).(*progressModel)
}

func TestApplyEventTracksTasks(t *testing.T) {
	m := newTestModel()
	m.applyEvent(scenario.Event{Scenario: "s", Status: scenario.StatusRunning})
	for _, item := range m.items {
		if item.status != scenario.StatusRunning {
			t.Fatalf("scenario start should mark %s running, got %s", item.task, item.status)
		}
	}

	m.applyEvent(scenario.Event{Scenario: "s", Task: "fg", Status: scenario.StatusRunning, Attempts: 2, InnerPolls: 2})
	m.applyEvent(scenario.Event{Scenario: "s", Task: "bg", Status: scenario.StatusRunning, Attempts: 50, InnerPolls: 16})
	if got := m.percent(); got != (0.5+0.5)/2 {
		t.Fatalf("want 0.5 overall, got %v", got)
	}

	m.applyEvent(scenario.Event{Scenario: "s", Task: "fg", Status: scenario.StatusDone, Attempts: 4, InnerPolls: 4})
	m.applyEvent(scenario.Event{Scenario: "s", Status: scenario.StatusExhausted})
	if m.items[0].status != scenario.StatusDone {
		t.Fatalf("finished task must stay done, got %s", m.items[0].status)
	}
	if m.items[1].status != scenario.StatusExhausted {
		t.Fatalf("live task should be exhausted, got %s", m.items[1].status)
	}
	if got := m.percent(); got != 1 {
		t.Fatalf("want full progress, got %v", got)
	}
}

func TestApplyEventIgnoresUnknownTask(t *testing.T) {
	m := newTestModel()
	if cmd := m.applyEvent(scenario.Event{Scenario: "s", Task: "nope", Status: scenario.StatusDone}); cmd != nil {
		t.Fatalf("unknown task should not update progress")
	}
}

func TestView(t *testing.T) {
	m := newTestModel()
	out := m.View()
	for _, want := range []string{"deprio run", "s/fg", "0/4 inner", "0/- inner"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("fitting value should be unchanged, got %q", got)
	}
	if got := truncate("abcdef", 0); got != "abcdef" {
		t.Fatalf("width 0 disables truncation, got %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("tiny width should cut without ellipsis, got %q", got)
	}
	for _, in := range []string{"scenario/long-task", "日本語のタスク名前"} {
		got := truncate(in, 10)
		if !strings.HasSuffix(got, "...") {
			t.Fatalf("truncate(%q) = %q, want ellipsis", in, got)
		}
		if w := runewidth.StringWidth(got); w > 10 {
			t.Fatalf("truncate(%q) = %q is %d cells wide, want <= 10", in, got, w)
		}
	}
}
