// Package prof starts and stops Go runtime profiles for the CLI.
package prof

import (
	"errors"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the profile outputs; empty paths are skipped.
type Options struct {
	CPU   string
	Mem   string // heap profile written by Stop
	Trace string // runtime execution trace
}

// Enabled reports whether any profile is requested.
func (o Options) Enabled() bool { return o.CPU != "" || o.Mem != "" || o.Trace != "" }

// Session is a set of running profiles.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
}

// Start enables the profiles named in opts. On error nothing is left
// running.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		s.cpuFile = f
	}
	if opts.Trace != "" {
		f, err := os.Create(opts.Trace)
		if err != nil {
			_ = s.Stop()
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			_ = s.Stop()
			return nil, err
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends running profiles and writes the heap profile. It is safe to
// call more than once.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.traceFile != nil {
		trace.Stop()
		errs = append(errs, s.traceFile.Close())
		s.traceFile = nil
	}
	if s.opts.Mem != "" {
		errs = append(errs, writeMem(s.opts.Mem))
		s.opts.Mem = ""
	}
	return errors.Join(errs...)
}

// writeMem captures a heap profile to path.
func writeMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
