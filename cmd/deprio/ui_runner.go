package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"deprio/internal/report"
	"deprio/internal/scenario"
	"deprio/internal/ui"
)

type runOutcome struct {
	reports []*report.Report
	err     error
}

func runScenariosWithUI(ctx context.Context, title string, scenarios []*scenario.Scenario, jobs int) ([]*report.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan scenario.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reports, err := scenario.RunAll(ctx, scenarios, jobs, scenario.ChannelSink{Ch: events})
		outcomeCh <- runOutcome{reports: reports, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, scenarios, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The program exits when events closes or on ctrl+c. In the second case
	// the run is abandoned and the producer must not block on a full channel.
	cancel()
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.reports, uiErr
	}
	return outcome.reports, outcome.err
}
