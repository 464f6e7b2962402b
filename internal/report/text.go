package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteText prints r as a human-readable table.
func WriteText(w io.Writer, r *Report) error {
	mode := "fifo"
	if r.Fuzz {
		mode = fmt.Sprintf("fuzz seed=%d", r.Seed)
	}
	status := "done"
	if r.Exhausted {
		status = "poll budget exhausted"
	}
	if _, err := fmt.Fprintf(w, "scenario %s (%s): %d polls, %d/%d tasks completed, %s\n",
		r.Scenario, mode, r.Polls, r.Completed(), len(r.Tasks), status); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tPRIO\tSTEPS\tATTEMPTS\tINNER\tSKIPPED\tORDER\tINNER ATTEMPTS") //nolint:errcheck // flushed below
	for i := range r.Tasks {
		t := &r.Tasks[i]
		steps := "never"
		if t.Steps > 0 {
			steps = fmt.Sprint(t.Steps)
		}
		order := "-"
		if t.Completed {
			order = fmt.Sprint(t.Order)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%s\t%s\n", //nolint:errcheck // flushed below
			t.Name, t.Prio, steps, t.Attempts, t.InnerPolls(), t.Skipped(), order, attemptList(t.InnerAttempts))
	}
	return tw.Flush()
}

const maxListed = 8

func attemptList(at []uint64) string {
	if len(at) == 0 {
		return "-"
	}
	parts := make([]string, 0, maxListed+1)
	for i, a := range at {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(at)-maxListed))
			break
		}
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ",")
}
