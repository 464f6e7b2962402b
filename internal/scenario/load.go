package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
)

type fileConfig struct {
	Scenario scenarioConfig `toml:"scenario"`
	Task     []taskConfig   `toml:"task"`
}

type scenarioConfig struct {
	Name     string `toml:"name"`
	Seed     int64  `toml:"seed"`
	Fuzz     bool   `toml:"fuzz"`
	MaxPolls int64  `toml:"max_polls"`
}

type taskConfig struct {
	Name  string `toml:"name"`
	Prio  int64  `toml:"prio"`
	Steps int64  `toml:"steps"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	sc.Path = path
	return sc, nil
}

// Parse decodes and validates scenario TOML. origin prefixes error messages.
func Parse(data []byte, origin string) (*Scenario, error) {
	if origin == "" {
		origin = "<scenario>"
	}
	var cfg fileConfig
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", origin, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", origin, undecoded[0])
	}
	if !meta.IsDefined("scenario") {
		return nil, fmt.Errorf("%s: missing [scenario]", origin)
	}
	name := norm.NFC.String(strings.TrimSpace(cfg.Scenario.Name))
	if !meta.IsDefined("scenario", "name") || name == "" {
		return nil, fmt.Errorf("%s: missing [scenario].name", origin)
	}

	sc := &Scenario{Name: name, Fuzz: cfg.Scenario.Fuzz, MaxPolls: DefaultMaxPolls}
	if sc.Seed, err = safecast.Conv[uint64](cfg.Scenario.Seed); err != nil {
		return nil, fmt.Errorf("%s: [scenario].seed must be >= 0", origin)
	}
	if meta.IsDefined("scenario", "max_polls") {
		if sc.MaxPolls, err = safecast.Conv[uint64](cfg.Scenario.MaxPolls); err != nil {
			return nil, fmt.Errorf("%s: [scenario].max_polls must be >= 0", origin)
		}
	}

	if len(cfg.Task) == 0 {
		return nil, fmt.Errorf("%s: at least one [[task]] is required", origin)
	}
	seen := make(map[string]int, len(cfg.Task))
	for i, tc := range cfg.Task {
		task, err := convertTask(tc)
		if err != nil {
			return nil, fmt.Errorf("%s: task[%d]: %w", origin, i, err)
		}
		if prev, dup := seen[task.Name]; dup {
			return nil, fmt.Errorf("%s: task[%d]: name %q already used by task[%d]", origin, i, task.Name, prev)
		}
		seen[task.Name] = i
		sc.Tasks = append(sc.Tasks, task)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}
	return sc, nil
}

func convertTask(tc taskConfig) (Task, error) {
	name := norm.NFC.String(strings.TrimSpace(tc.Name))
	if name == "" {
		return Task{}, errors.New("missing name")
	}
	prio, err := safecast.Conv[uint](tc.Prio)
	if err != nil {
		return Task{}, fmt.Errorf("%s: prio must be >= 0", name)
	}
	steps, err := safecast.Conv[uint](tc.Steps)
	if err != nil {
		return Task{}, fmt.Errorf("%s: steps must be >= 0", name)
	}
	return Task{Name: name, Prio: prio, Steps: steps}, nil
}

// Validate checks constraints that hold for scenarios built in code as well
// as for parsed ones.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return errors.New("scenario name is empty")
	}
	if len(sc.Tasks) == 0 {
		return errors.New("scenario has no tasks")
	}
	for _, t := range sc.Tasks {
		if t.Endless() && sc.MaxPolls == 0 {
			return fmt.Errorf("task %q never completes, max_polls must be > 0", t.Name)
		}
	}
	return nil
}

// Encode renders sc as scenario TOML accepted by Parse.
func Encode(sc *Scenario) ([]byte, error) {
	cfg := fileConfig{
		Scenario: scenarioConfig{Name: sc.Name, Fuzz: sc.Fuzz},
		Task:     make([]taskConfig, 0, len(sc.Tasks)),
	}
	var err error
	if cfg.Scenario.Seed, err = safecast.Conv[int64](sc.Seed); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if cfg.Scenario.MaxPolls, err = safecast.Conv[int64](sc.MaxPolls); err != nil {
		return nil, fmt.Errorf("max_polls: %w", err)
	}
	for _, t := range sc.Tasks {
		tc := taskConfig{Name: t.Name}
		if tc.Prio, err = safecast.Conv[int64](t.Prio); err != nil {
			return nil, fmt.Errorf("task %q: prio: %w", t.Name, err)
		}
		if tc.Steps, err = safecast.Conv[int64](t.Steps); err != nil {
			return nil, fmt.Errorf("task %q: steps: %w", t.Name, err)
		}
		cfg.Task = append(cfg.Task, tc)
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Sample is the scenario written by `deprio init`: one unthrottled task, one
// throttled task that finishes on its 18th attempt and one endless
// background task.
func Sample(name string) *Scenario {
	return &Scenario{
		Name:     name,
		MaxPolls: 200,
		Tasks: []Task{
			{Name: "foreground", Prio: 0, Steps: 3},
			{Name: "deferred", Prio: 5, Steps: 3},
			{Name: "background", Prio: 2, Steps: 0},
		},
	}
}
