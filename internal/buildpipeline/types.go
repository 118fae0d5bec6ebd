package buildpipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageLoad reads and decodes a unit file.
	StageLoad Stage = "load"
	// StageLower lowers the unit's statements.
	StageLower Stage = "lower"
	// StageEmit writes the lowered class.
	StageEmit Stage = "emit"
	// StageRun executes the class on the VM.
	StageRun Stage = "run"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the overall pipeline when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Build calls OnEvent from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// OutputFormat selects how lowered classes are written.
type OutputFormat string

const (
	// FormatJasmin writes a textual listing.
	FormatJasmin OutputFormat = "jasmin"
	// FormatMsgpack writes the binary class codec.
	FormatMsgpack OutputFormat = "msgpack"
)

// ParseOutputFormat accepts jasmin or msgpack, case-insensitively.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJasmin, FormatMsgpack:
		return f, nil
	case "":
		return FormatJasmin, nil
	}
	return "", fmt.Errorf("unsupported output format %q (expected jasmin|msgpack)", s)
}

// Ext is the file extension for the format.
func (f OutputFormat) Ext() string {
	if f == FormatMsgpack {
		return ".pcb"
	}
	return ".j"
}

// Timings holds stage durations summed over all units.
type Timings struct {
	mu     sync.Mutex
	stages map[Stage]time.Duration
}

// Add accumulates dur into stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t *Timings) Has(stage Stage) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t *Timings) Duration(stage Stage) time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t *Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.Duration(stage)
	}
	return total
}
