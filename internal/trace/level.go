package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff   Level = iota // no tracing
	LevelError              // failures only
	LevelRun                // executor run boundaries
	LevelTask               // task lifecycle
	LevelPoll               // every poll
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelRun:
		return "run"
	case LevelTask:
		return "task"
	case LevelPoll:
		return "poll"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "run":
		return LevelRun, nil
	case "task":
		return LevelTask, nil
	case "poll", "debug":
		return LevelPoll, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|run|task|poll, debug = poll)", s)
	}
}

// ShouldEmit reports whether events of the given scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelRun:
		return scope <= ScopeRun
	case LevelTask:
		return scope <= ScopeTask
	case LevelPoll:
		return true
	}
	// LevelError events go through the failure path, not through scopes.
	return false
}
