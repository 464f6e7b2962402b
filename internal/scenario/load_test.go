package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contention = `
[scenario]
name = "contention"
max_polls = 500

[[task]]
name = "fg"
prio = 0
steps = 3

[[task]]
name = "bg"
prio = 5
steps = 3
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contention.toml")
	if err := os.WriteFile(path, []byte(contention), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.Path != path || sc.Name != "contention" || sc.MaxPolls != 500 || sc.Fuzz {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if len(sc.Tasks) != 2 || sc.Tasks[1] != (Task{Name: "bg", Prio: 5, Steps: 3}) {
		t.Fatalf("unexpected tasks %+v", sc.Tasks)
	}
}

func TestParseDefaults(t *testing.T) {
	sc, err := Parse([]byte("[scenario]\nname = \"d\"\n[[task]]\nname = \"a\"\nsteps = 1\n"), "d.toml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.MaxPolls != DefaultMaxPolls {
		t.Fatalf("want default max_polls %d, got %d", DefaultMaxPolls, sc.MaxPolls)
	}
	if sc.Tasks[0].Prio != 0 {
		t.Fatalf("prio should default to 0, got %d", sc.Tasks[0].Prio)
	}
}

func TestParseNormalizesNames(t *testing.T) {
	// "e" + combining acute and the precomposed form collide after NFC.
	data := `
[scenario]
name = "n"

[[task]]
name = "cafe\u0301"
steps = 1

[[task]]
name = "caf\u00e9"
steps = 1
`
	_, err := Parse([]byte(data), "n.toml")
	if err == nil || !strings.Contains(err.Error(), "already used by task[0]") {
		t.Fatalf("want duplicate name error, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]struct {
		data    string
		wantErr string
	}{
		"bad toml":        {data: "[scenario", wantErr: "bad.toml: failed to parse TOML"},
		"no scenario":     {data: "[[task]]\nname = \"a\"\n", wantErr: "missing [scenario]"},
		"no name":         {data: "[scenario]\nseed = 1\n[[task]]\nname = \"a\"\n", wantErr: "missing [scenario].name"},
		"no tasks":        {data: "[scenario]\nname = \"x\"\n", wantErr: "at least one [[task]]"},
		"unknown key":     {data: "[scenario]\nname = \"x\"\nspeed = 2\n[[task]]\nname = \"a\"\n", wantErr: "unknown key scenario.speed"},
		"negative prio":   {data: "[scenario]\nname = \"x\"\n[[task]]\nname = \"a\"\nprio = -1\n", wantErr: "task[0]: a: prio must be >= 0"},
		"negative steps":  {data: "[scenario]\nname = \"x\"\n[[task]]\nname = \"a\"\nsteps = -3\n", wantErr: "task[0]: a: steps must be >= 0"},
		"negative seed":   {data: "[scenario]\nname = \"x\"\nseed = -1\n[[task]]\nname = \"a\"\n", wantErr: "seed must be >= 0"},
		"unnamed task":    {data: "[scenario]\nname = \"x\"\n[[task]]\nprio = 1\n", wantErr: "task[0]: missing name"},
		"endless no cap":  {data: "[scenario]\nname = \"x\"\nmax_polls = 0\n[[task]]\nname = \"a\"\n", wantErr: "max_polls must be > 0"},
		"duplicate names": {data: "[scenario]\nname = \"x\"\n[[task]]\nname = \"a\"\n[[task]]\nname = \" a \"\n", wantErr: "task[1]: name \"a\" already used"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "bad.toml")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("want error containing %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := Sample("sample")
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Parse(data, "sample.toml")
	if err != nil {
		t.Fatalf("Parse(Encode): %v\n%s", err, data)
	}
	if out.Name != in.Name || out.MaxPolls != in.MaxPolls || len(out.Tasks) != len(in.Tasks) {
		t.Fatalf("round trip changed scenario: %+v", out)
	}
	for i := range in.Tasks {
		if out.Tasks[i] != in.Tasks[i] {
			t.Fatalf("task %d: want %+v, got %+v", i, in.Tasks[i], out.Tasks[i])
		}
	}
}
