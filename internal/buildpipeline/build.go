// Package buildpipeline lowers unit files in parallel and writes the
// resulting classes.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pascalc/internal/driver"
	"pascalc/internal/trace"
)

// BuildRequest configures Build.
type BuildRequest struct {
	Files []string
	// BaseDir shortens file names in progress events.
	BaseDir string
	// OutDir receives one file per class; empty skips the emit stage.
	OutDir string
	Format OutputFormat
	// Jobs bounds how many units are processed at once; 0 means GOMAXPROCS.
	Jobs     int
	Lower    driver.LowerOptions
	Progress ProgressSink
}

// UnitResult is the outcome for one input file.
type UnitResult struct {
	File    string
	Display string
	Output  string
	Lowered *driver.LowerResult
	Err     error
	Elapsed time.Duration
}

// BuildResult captures per-unit outcomes and stage timings.
type BuildResult struct {
	Units   []UnitResult
	Timings *Timings
}

// Failed returns the units that did not build.
func (r *BuildResult) Failed() []UnitResult {
	var out []UnitResult
	for _, u := range r.Units {
		if u.Err != nil {
			out = append(out, u)
		}
	}
	return out
}

// Build loads, lowers and emits every file in req. A failing unit does not
// stop the others; the returned error joins every unit error, each
// prefixed with its path. Cancelling ctx stops units that have not started.
func Build(ctx context.Context, req *BuildRequest) (*BuildResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing build request")
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	format := req.Format
	if format == "" {
		format = FormatJasmin
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	files := uniqueFiles(req.Files)
	result := &BuildResult{
		Units:   make([]UnitResult, len(files)),
		Timings: &Timings{},
	}
	for i, file := range files {
		result.Units[i] = UnitResult{File: file, Display: DisplayPath(file, req.BaseDir)}
	}
	display := make([]string, len(files))
	for i := range result.Units {
		display[i] = result.Units[i].Display
	}
	emitQueued(req.Progress, display)

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "build", trace.ParentFrom(ctx))
	ctx = trace.WithParent(ctx, span)

	b := &builder{req: req, format: format, timings: result.Timings, claimed: make(map[string]string)}
	var g errgroup.Group
	g.SetLimit(jobs)
	for i := range result.Units {
		u := &result.Units[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				u.Err = err
				emit(req.Progress, Event{File: u.Display, Stage: StageLoad, Status: StatusError, Err: err})
				return err
			}
			b.unit(ctx, u)
			return nil
		})
	}
	cancelErr := g.Wait()

	var errs []error
	for _, u := range result.Failed() {
		if !errors.Is(u.Err, context.Canceled) && !errors.Is(u.Err, context.DeadlineExceeded) {
			errs = append(errs, u.Err)
		}
	}
	err := errors.Join(errs...)
	if cancelErr != nil {
		err = errors.Join(cancelErr, err)
	}
	status := StatusDone
	if err != nil {
		status = StatusError
	}
	emit(req.Progress, Event{Stage: StageEmit, Status: status, Err: err, Elapsed: result.Timings.Sum(StageLoad, StageLower, StageEmit)})
	if err != nil {
		span.End(err.Error())
	} else {
		span.End("")
	}
	return result, err
}

type builder struct {
	req     *BuildRequest
	format  OutputFormat
	timings *Timings

	mu      sync.Mutex
	claimed map[string]string // output path -> unit that wrote it
}

func (b *builder) unit(ctx context.Context, u *UnitResult) {
	start := time.Now()
	stage := StageLoad
	fail := func(err error) {
		u.Err = err
		u.Elapsed = time.Since(start)
		emit(b.req.Progress, Event{File: u.Display, Stage: stage, Status: StatusError, Err: err, Elapsed: u.Elapsed})
	}

	emit(b.req.Progress, Event{File: u.Display, Stage: stage, Status: StatusWorking})
	t := time.Now()
	unit, err := driver.LoadUnit(u.File)
	b.timings.Add(StageLoad, time.Since(t))
	if err != nil {
		fail(err)
		return
	}

	stage = StageLower
	emit(b.req.Progress, Event{File: u.Display, Stage: stage, Status: StatusWorking})
	t = time.Now()
	lowered, err := driver.LowerUnit(ctx, unit, &b.req.Lower)
	b.timings.Add(StageLower, time.Since(t))
	if err != nil {
		fail(err)
		return
	}
	u.Lowered = lowered

	if b.req.OutDir != "" {
		stage = StageEmit
		emit(b.req.Progress, Event{File: u.Display, Stage: stage, Status: StatusWorking})
		path := OutputPath(b.req.OutDir, lowered.Lowered.Class, b.format)
		if err := b.claim(path, u.File); err != nil {
			fail(err)
			return
		}
		t = time.Now()
		err := WriteClass(path, lowered.Lowered.Class, b.format)
		b.timings.Add(StageEmit, time.Since(t))
		if err != nil {
			fail(fmt.Errorf("%s: %w", u.File, err))
			return
		}
		u.Output = path
	}

	u.Elapsed = time.Since(start)
	emit(b.req.Progress, Event{File: u.Display, Stage: stage, Status: StatusDone, Elapsed: u.Elapsed})
}

// claim reserves an output path so that two units lowering to the same
// class name do not overwrite each other.
func (b *builder) claim(path, file string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if other, ok := b.claimed[path]; ok {
		return fmt.Errorf("%s: output %s is already produced by %s", file, path, other)
	}
	b.claimed[path] = file
	return nil
}
