package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pascalc/internal/config"
	"pascalc/internal/trace"
)

// setupTracing initializes the tracer described by cfg.Trace and attaches
// it to the command context. It returns a cleanup function.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(), error) {
	level, err := trace.ParseLevel(cfg.Trace.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	mode, err := trace.ParseMode(cfg.Trace.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	ringSize, err := cmd.Flags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: cfg.Trace.Output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		// a ring-only tracer has nowhere to stream; dump it at exit
		if ring, ok := tracer.(*trace.RingTracer); ok {
			if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
