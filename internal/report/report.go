// Package report holds the results of a scenario run and persists them.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is bumped whenever the on-disk layout of Report changes.
const SchemaVersion uint16 = 1

// ErrSchemaMismatch is returned by Load for files written by another schema.
var ErrSchemaMismatch = errors.New("report: schema mismatch")

// Report is the outcome of one scenario run.
type Report struct {
	Schema    uint16
	Scenario  string
	Seed      uint64
	Fuzz      bool
	MaxPolls  uint64
	Polls     uint64 // executor polls across all tasks
	Exhausted bool   // run stopped on the poll budget
	Tasks     []TaskReport
}

// TaskReport is the cadence record of one priority-wrapped task.
type TaskReport struct {
	Name          string
	Prio          uint
	Steps         uint // inner polls the probe needed, 0 = never ready
	Attempts      uint64
	Completed     bool
	DoneSeq       uint64 // executor poll number of completion, 0 while live
	Order         int    // 1-based completion rank, 0 while live
	InnerAttempts []uint64
}

// InnerPolls returns how many attempts were forwarded to the inner future.
func (t *TaskReport) InnerPolls() int { return len(t.InnerAttempts) }

// Skipped returns how many attempts were absorbed by the wrapper.
func (t *TaskReport) Skipped() uint64 {
	return t.Attempts - uint64(len(t.InnerAttempts))
}

// Completed returns the number of tasks that finished.
func (r *Report) Completed() int {
	n := 0
	for i := range r.Tasks {
		if r.Tasks[i].Completed {
			n++
		}
	}
	return n
}

// Save writes r to path as msgpack, replacing any existing file atomically.
func Save(path string, r *Report) error {
	if r == nil {
		return fmt.Errorf("report: nil report")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*.mp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // gone after a successful rename

	out := *r
	out.Schema = SchemaVersion
	if err := msgpack.NewEncoder(f).Encode(&out); err != nil {
		f.Close() //nolint:errcheck,gosec // encode error wins
		return fmt.Errorf("%s: encode report: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a report written by Save.
func Load(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only

	var r Report
	if err := msgpack.NewDecoder(f).Decode(&r); err != nil {
		return nil, fmt.Errorf("%s: decode report: %w", path, err)
	}
	if r.Schema != SchemaVersion {
		return nil, fmt.Errorf("%s: %w: got %d, want %d", path, ErrSchemaMismatch, r.Schema, SchemaVersion)
	}
	return &r, nil
}
