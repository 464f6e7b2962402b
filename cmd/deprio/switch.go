package main

import (
	"fmt"
	"strings"
)

// autoSwitch is the value of a tri-state flag such as --color or --ui.
type autoSwitch string

const (
	switchAuto autoSwitch = "auto"
	switchOn   autoSwitch = "on"
	switchOff  autoSwitch = "off"
)

func parseAutoOnOff(flag, value string) (autoSwitch, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return switchAuto, nil
	case "on", "always":
		return switchOn, nil
	case "off", "never":
		return switchOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// enabled resolves the switch; auto follows fallback.
func (s autoSwitch) enabled(fallback bool) bool {
	switch s {
	case switchOn:
		return true
	case switchOff:
		return false
	default:
		return fallback
	}
}

// tuiEnabled decides whether `run` draws the progress UI. --quiet wins over
// --ui=on, and auto needs stdout to be a terminal.
func tuiEnabled(mode autoSwitch, quiet, stdoutTTY bool) bool {
	if quiet {
		return false
	}
	return mode.enabled(stdoutTTY)
}

// colorEnabled decides whether output is colorized. In auto mode a terminal
// is required and a prior opt-out (NO_COLOR) is kept.
func colorEnabled(mode autoSwitch, optedOut, stdoutTTY bool) bool {
	return mode.enabled(stdoutTTY && !optedOut)
}
