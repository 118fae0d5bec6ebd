package main

import (
	"fmt"
	"os"
	"strings"

	"pascalc/internal/config"
	"pascalc/internal/trace"
)

// switchMode is the auto|on|off value of --ui and --color.
type switchMode string

const (
	modeAuto switchMode = "auto"
	modeOn   switchMode = "on"
	modeOff  switchMode = "off"
)

func parseSwitch(flag, value string) (switchMode, error) {
	switch m := switchMode(strings.TrimSpace(strings.ToLower(value))); m {
	case "":
		return modeAuto, nil
	case modeAuto, modeOn, modeOff:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// streamsTraceToStderr reports whether tracing writes events to stderr while
// the build runs. Ring mode only dumps at exit.
func streamsTraceToStderr(tc config.TraceConfig) bool {
	if lvl, err := trace.ParseLevel(tc.Level); err != nil || lvl == trace.LevelOff {
		return false
	}
	if mode, err := trace.ParseMode(tc.Mode); err != nil || mode == trace.ModeRing {
		return false
	}
	return tc.Output == "" || tc.Output == "-"
}

// shouldUseTUI resolves --ui. In auto mode the progress view needs a terminal
// on stdout and no trace stream interleaving with it on stderr.
func shouldUseTUI(mode switchMode, cfg config.Config) bool {
	switch mode {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return !streamsTraceToStderr(cfg.Trace) && isTerminal(os.Stdout)
	}
}
