package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"deprio/internal/scenario"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample scenario file",
	Long: `Write a sample scenario with an unthrottled task, a throttled task and an
endless background task. [path] defaults to scenario.toml; a directory gets a
scenario.toml inside it. Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "scenario.toml"
	if len(args) == 1 {
		target = args[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(abs); err == nil {
		if !st.IsDir() {
			return fmt.Errorf("%s already exists", abs)
		}
		abs = filepath.Join(abs, "scenario.toml")
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	} else if filepath.Ext(abs) != ".toml" {
		abs = filepath.Join(abs, "scenario.toml")
	}
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("%s already exists", abs)
	}

	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	if name == "scenario" {
		name = filepath.Base(filepath.Dir(abs))
	}
	data, err := scenario.Encode(scenario.Sample(name))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil { //nolint:gosec // plain config file
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", abs)
	return nil
}
