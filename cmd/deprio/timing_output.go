package main

import (
	"fmt"
	"io"

	"deprio/internal/observ"
	"deprio/internal/report"
)

func printTimings(out io.Writer, timer *observ.Timer, reports []*report.Report) {
	if out == nil || timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
	var polls uint64
	for _, rep := range reports {
		polls += rep.Polls
	}
	total := timer.Report().TotalMS
	if polls == 0 || total <= 0 {
		return
	}
	fmt.Fprintf(out, "  %-20s %7.0f polls/ms\n", "throughput", float64(polls)/total)
}
