package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"deprio/internal/report"
	"deprio/internal/scenario"
)

func TestParseAutoOnOff(t *testing.T) {
	tests := map[string]autoSwitch{"": switchAuto, "AUTO": switchAuto, " on ": switchOn, "always": switchOn, "off": switchOff, "never": switchOff}
	for in, want := range tests {
		got, err := parseAutoOnOff("ui", in)
		if err != nil || got != want {
			t.Fatalf("parseAutoOnOff(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	_, err := parseAutoOnOff("color", "sometimes")
	if err == nil || !strings.Contains(err.Error(), "--color") {
		t.Fatalf("error should name the flag, got %v", err)
	}
}

func TestTUIEnabled(t *testing.T) {
	tests := map[string]struct {
		mode  autoSwitch
		quiet bool
		tty   bool
		want  bool
	}{
		"auto on terminal": {mode: switchAuto, tty: true, want: true},
		"auto piped":       {mode: switchAuto, tty: false, want: false},
		"forced on piped":  {mode: switchOn, tty: false, want: true},
		"off on terminal":  {mode: switchOff, tty: true, want: false},
		"quiet beats on":   {mode: switchOn, quiet: true, tty: true, want: false},
		"quiet beats auto": {mode: switchAuto, quiet: true, tty: true, want: false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tuiEnabled(tt.mode, tt.quiet, tt.tty); got != tt.want {
				t.Fatalf("tuiEnabled(%q, quiet=%v, tty=%v) = %v, want %v", tt.mode, tt.quiet, tt.tty, got, tt.want)
			}
		})
	}
}

func TestColorEnabled(t *testing.T) {
	if colorEnabled(switchAuto, true, true) {
		t.Fatalf("auto must keep a NO_COLOR opt-out")
	}
	if !colorEnabled(switchAuto, false, true) || colorEnabled(switchAuto, false, false) {
		t.Fatalf("auto should follow the terminal")
	}
	if !colorEnabled(switchOn, true, false) || colorEnabled(switchOff, false, true) {
		t.Fatalf("explicit on/off must win")
	}
}

func TestReportFileName(t *testing.T) {
	if got, want := reportFileName("a/b c:d"), "a_b_c_d.mp"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestSaveReports(t *testing.T) {
	dir := t.TempDir()
	one := []*report.Report{{Scenario: "solo"}}
	file := filepath.Join(dir, "solo.mp")
	if err := saveReports(file, one); err != nil {
		t.Fatalf("saveReports(file): %v", err)
	}
	if _, err := report.Load(file); err != nil {
		t.Fatalf("Load: %v", err)
	}

	many := []*report.Report{{Scenario: "a"}, {Scenario: "b"}}
	out := filepath.Join(dir, "many")
	if err := saveReports(out, many); err != nil {
		t.Fatalf("saveReports(dir): %v", err)
	}
	for _, name := range []string{"a.mp", "b.mp"} {
		if _, err := report.Load(filepath.Join(out, name)); err != nil {
			t.Fatalf("Load %s: %v", name, err)
		}
	}
}

func TestRunInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runInit(cmd, []string{dir}); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	path := filepath.Join(dir, "scenario.toml")
	sc, err := scenario.Load(path)
	if err != nil {
		t.Fatalf("generated file does not load: %v", err)
	}
	if sc.Name != "demo" || len(sc.Tasks) != 3 {
		t.Fatalf("unexpected sample scenario %+v", sc)
	}
	if !strings.Contains(out.String(), "created "+path) {
		t.Fatalf("unexpected output %q", out.String())
	}
	if err := runInit(cmd, []string{dir}); err == nil {
		t.Fatalf("second init must refuse to overwrite")
	}
}

func TestCheckReports(t *testing.T) {
	good := &report.Report{Scenario: "good", Tasks: []report.TaskReport{
		{Name: "t", Prio: 1, Attempts: 2, Completed: true, InnerAttempts: []uint64{2}},
	}}
	bad := &report.Report{Scenario: "bad", Tasks: []report.TaskReport{
		{Name: "t", Prio: 1, Attempts: 1, Completed: true, InnerAttempts: []uint64{1}},
	}}
	var out bytes.Buffer
	if err := checkReports(&out, []*report.Report{good}, false); err != nil {
		t.Fatalf("good report should pass: %v", err)
	}
	err := checkReports(&out, []*report.Report{good, bad}, false)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("want failure for one report, got %v", err)
	}
	if !strings.Contains(out.String(), "FAIL bad") {
		t.Fatalf("output should flag the failing scenario:\n%s", out.String())
	}
}

func TestBuildFactsCarryReportSchema(t *testing.T) {
	show, err := parseShow([]string{"hash", "codecs"}, false)
	if err != nil {
		t.Fatalf("parseShow: %v", err)
	}
	codecs := map[string]string{"report": "github.com/vmihailenco/msgpack/v5@v5.4.1"}
	facts := collectBuildFacts(show, codecs)
	if facts.Tool != "deprio" || facts.ReportSchema != report.SchemaVersion {
		t.Fatalf("unexpected facts %+v", facts)
	}
	if facts.GitCommit == "" || facts.BuildDate != "" || facts.GoVersion != "" {
		t.Fatalf("only requested facts should be filled: %+v", facts)
	}

	data, err := json.Marshal(facts)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["report_schema"] != float64(report.SchemaVersion) {
		t.Fatalf("want report_schema %d in %s", report.SchemaVersion, data)
	}
	if _, ok := decoded["build_date"]; ok {
		t.Fatalf("unrequested build_date should be omitted: %s", data)
	}

	var buf bytes.Buffer
	renderBuildFacts(&buf, facts)
	for _, want := range []string{"report schema: v1", "report codec: github.com/vmihailenco/msgpack/v5@v5.4.1"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("pretty output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestParseShow(t *testing.T) {
	all, err := parseShow(nil, true)
	if err != nil || len(all) != len(showKeys) {
		t.Fatalf("--full should enable every fact, got %v (%v)", all, err)
	}
	if _, err := parseShow([]string{"weather"}, false); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestReadCodecVersions(t *testing.T) {
	got := readCodecVersions()
	for _, role := range []string{"report", "scenario"} {
		if got[role] == "" {
			t.Fatalf("role %s missing from %v", role, got)
		}
	}
}

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}
