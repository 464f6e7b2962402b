package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"deprio/internal/observ"
	"deprio/internal/report"
	"deprio/internal/scenario"
)

var (
	runUI    string
	runJobs  int
	runSave  string
	runCheck bool
	runFuzz  bool
	runSeed  uint64
)

func init() {
	runCmd.Flags().StringVar(&runUI, "ui", "auto", "progress UI (auto|on|off)")
	runCmd.Flags().IntVarP(&runJobs, "jobs", "j", 0, "scenarios run in parallel (0 = GOMAXPROCS)")
	runCmd.Flags().StringVar(&runSave, "save", "", "save reports as msgpack (file for one scenario, directory otherwise)")
	runCmd.Flags().BoolVar(&runCheck, "check", false, "fail when a task's poll cadence breaks the skip invariant")
	runCmd.Flags().BoolVar(&runFuzz, "fuzz", false, "force randomized scheduling for every scenario")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "override the fuzz seed of every scenario")
}

var runCmd = &cobra.Command{
	Use:   "run <scenario.toml>...",
	Short: "Run scenarios and report per-task poll cadence",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func runScenarios(cmd *cobra.Command, args []string) error {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	mode, err := parseAutoOnOff("ui", runUI)
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()

	timer := observ.NewTimer()

	phase := timer.Begin("load")
	scenarios := make([]*scenario.Scenario, 0, len(args))
	for _, path := range args {
		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}
		if runFuzz {
			sc.Fuzz = true
		}
		if cmd.Flags().Changed("seed") {
			sc.Seed = runSeed
		}
		scenarios = append(scenarios, sc)
	}
	timer.End(phase, fmt.Sprintf("%d scenarios", len(scenarios)))

	phase = timer.Begin("simulate")
	var reports []*report.Report
	if tuiEnabled(mode, quiet, isTerminal(os.Stdout)) {
		reports, err = runScenariosWithUI(cmd.Context(), "deprio run", scenarios, runJobs)
	} else {
		reports, err = scenario.RunAll(cmd.Context(), scenarios, runJobs, scenario.NopSink{})
	}
	timer.End(phase, "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !quiet {
		for _, rep := range reports {
			if err := report.WriteText(out, rep); err != nil {
				return err
			}
			fmt.Fprintln(out)
		}
	}

	if runSave != "" {
		phase = timer.Begin("save")
		if err := saveReports(runSave, reports); err != nil {
			return err
		}
		timer.End(phase, runSave)
	}

	var checkErr error
	if runCheck {
		checkErr = checkReports(out, reports, quiet)
	}
	if showTimings {
		printTimings(cmd.ErrOrStderr(), timer, reports)
	}
	return checkErr
}

func saveReports(target string, reports []*report.Report) error {
	if len(reports) == 1 && filepath.Ext(target) != "" {
		return report.Save(target, reports[0])
	}
	for _, rep := range reports {
		if err := report.Save(filepath.Join(target, reportFileName(rep.Scenario)), rep); err != nil {
			return err
		}
	}
	return nil
}

func reportFileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
	return clean + ".mp"
}

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func checkReports(out io.Writer, reports []*report.Report, quiet bool) error {
	var errs []error
	for _, rep := range reports {
		err := scenario.Check(rep)
		if !quiet {
			if err != nil {
				fmt.Fprintf(out, "%s %s\n", failColor.Sprint("FAIL"), rep.Scenario)
			} else {
				fmt.Fprintf(out, "%s %s\n", passColor.Sprint("ok"), rep.Scenario)
			}
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cadence check failed for %d of %d scenarios:\n%w", len(errs), len(reports), errors.Join(errs...))
	}
	return nil
}
