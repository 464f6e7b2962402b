package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deprio/internal/report"
)

var reportCheck bool

func init() {
	reportCmd.Flags().BoolVar(&reportCheck, "check", false, "re-run the cadence check on the saved reports")
}

var reportCmd = &cobra.Command{
	Use:   "report <file.mp>...",
	Short: "Print reports saved by run --save",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		out := cmd.OutOrStdout()
		reports := make([]*report.Report, 0, len(args))
		for i, path := range args {
			rep, err := report.Load(path)
			if err != nil {
				return err
			}
			reports = append(reports, rep)
			if quiet {
				continue
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := report.WriteText(out, rep); err != nil {
				return err
			}
		}
		if reportCheck {
			return checkReports(out, reports, quiet)
		}
		return nil
	},
}
