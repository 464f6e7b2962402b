// Package scenario simulates sets of priority-wrapped tasks sharing one
// executor and records the poll cadence each task actually received.
//
// A scenario file declares tasks by skip count (prio) and by how many inner
// polls each needs to finish (steps). Every task is a probe future that is
// always immediately re-wakeable, so the only thing separating tasks in the
// resulting report is the priority wrapper.
package scenario

// DefaultMaxPolls bounds runs whose file sets no max_polls.
const DefaultMaxPolls uint64 = 100_000

// Scenario is a validated scenario description.
type Scenario struct {
	Path     string // source file, empty for in-memory scenarios
	Name     string
	Seed     uint64
	Fuzz     bool
	MaxPolls uint64 // 0 = unlimited, only allowed when every task finishes
	Tasks    []Task
}

// Task is one simulated task.
type Task struct {
	Name  string
	Prio  uint
	Steps uint // inner polls until ready, 0 = never ready
}

// Endless reports whether the task never completes on its own.
func (t Task) Endless() bool { return t.Steps == 0 }
