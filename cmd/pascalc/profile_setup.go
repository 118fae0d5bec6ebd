package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pascalc/internal/prof"
)

// setupProfiling starts the profiles requested by flags and returns the
// function that stops them.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	var opts prof.Options
	for name, dst := range map[string]*string{
		"cpuprofile": &opts.CPU,
		"memprofile": &opts.Mem,
		"exectrace":  &opts.Trace,
	} {
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	if !opts.Enabled() {
		return func() {}, nil
	}
	session, err := prof.Start(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}
