package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"deprio/internal/report"
	"deprio/internal/scenario"
	"deprio/internal/version"
)

// buildFacts is what `deprio version` can tell: the release, the report file
// format this binary reads and writes, and the modules that define the
// scenario and report encodings.
type buildFacts struct {
	Tool            string            `json:"tool"`
	Version         string            `json:"version"`
	ReportSchema    uint16            `json:"report_schema"`
	DefaultMaxPolls uint64            `json:"default_max_polls"`
	GoVersion       string            `json:"go,omitempty"`
	GitCommit       string            `json:"git_commit,omitempty"`
	GitMessage      string            `json:"git_message,omitempty"`
	BuildDate       string            `json:"build_date,omitempty"`
	Codecs          map[string]string `json:"codecs,omitempty"`
}

// codecModules decide whether a saved report or scenario file is readable
// by another build.
var codecModules = map[string]string{
	"github.com/vmihailenco/msgpack/v5": "report",
	"github.com/BurntSushi/toml":        "scenario",
}

var (
	versionFormat string
	versionFull   bool
	versionShow   []string
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "show every recorded fact")
	versionCmd.Flags().StringSliceVar(&versionShow, "show", nil, "extra facts to include (hash,message,date,go,codecs)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the release and the report format this build understands",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(versionFormat))
		if format != "pretty" && format != "json" {
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
		show, err := parseShow(versionShow, versionFull)
		if err != nil {
			return err
		}
		facts := collectBuildFacts(show, readCodecVersions())
		if format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(facts)
		}
		renderBuildFacts(cmd.OutOrStdout(), facts)
		return nil
	},
}

var showKeys = []string{"hash", "message", "date", "go", "codecs"}

func parseShow(keys []string, full bool) (map[string]bool, error) {
	show := make(map[string]bool, len(showKeys))
	if full {
		for _, k := range showKeys {
			show[k] = true
		}
		return show, nil
	}
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		known := false
		for _, s := range showKeys {
			known = known || s == k
		}
		if !known {
			return nil, fmt.Errorf("unknown --show key %q (expected %s)", k, strings.Join(showKeys, ","))
		}
		show[k] = true
	}
	return show, nil
}

func collectBuildFacts(show map[string]bool, codecs map[string]string) buildFacts {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	facts := buildFacts{
		Tool:            "deprio",
		Version:         v,
		ReportSchema:    report.SchemaVersion,
		DefaultMaxPolls: scenario.DefaultMaxPolls,
	}
	if show["hash"] {
		facts.GitCommit = valueOrUnknown(version.GitCommit)
	}
	if show["message"] {
		facts.GitMessage = valueOrUnknown(version.GitMessage)
	}
	if show["date"] {
		facts.BuildDate = valueOrUnknown(version.BuildDate)
	}
	if show["go"] {
		facts.GoVersion = runtime.Version()
	}
	if show["codecs"] {
		facts.Codecs = codecs
	}
	return facts
}

// readCodecVersions maps each codec's role to the module version linked into
// this binary. Test binaries and `go run` builds report "(devel)" or nothing.
func readCodecVersions() map[string]string {
	out := make(map[string]string, len(codecModules))
	for _, role := range codecModules {
		out[role] = "unknown"
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, dep := range info.Deps {
		if role, ok := codecModules[dep.Path]; ok {
			out[role] = dep.Path + "@" + dep.Version
		}
	}
	return out
}

func renderBuildFacts(out io.Writer, f buildFacts) {
	fmt.Fprintf(out, "deprio %s\n", version.Colored(f.Version))
	fmt.Fprintf(out, "report schema: v%d\n", f.ReportSchema)
	fmt.Fprintf(out, "default max_polls: %d\n", f.DefaultMaxPolls)
	if f.GoVersion != "" {
		fmt.Fprintf(out, "go: %s\n", f.GoVersion)
	}
	if f.GitCommit != "" {
		fmt.Fprintf(out, "commit: %s\n", f.GitCommit)
	}
	if f.GitMessage != "" {
		fmt.Fprintf(out, "message: %s\n", f.GitMessage)
	}
	if f.BuildDate != "" {
		fmt.Fprintf(out, "built: %s\n", f.BuildDate)
	}
	for _, role := range []string{"report", "scenario"} {
		if v, ok := f.Codecs[role]; ok {
			fmt.Fprintf(out, "%s codec: %s\n", role, v)
		}
	}
}

func valueOrUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
