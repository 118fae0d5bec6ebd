package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pascalc/internal/codegen"
	"pascalc/internal/config"
	"pascalc/internal/driver"
	"pascalc/internal/observ"
)

// lowerOptions builds driver options from the resolved settings. The disk
// cache is opened only when useCache is set.
func lowerOptions(cfg config.Config, timer *observ.Timer, useCache bool) (driver.LowerOptions, error) {
	opts := driver.LowerOptions{
		Codegen: codegen.ProgramOptions{
			Options: codegen.Options{
				Namespace:              cfg.Module.Namespace,
				GeneralWhileConditions: cfg.Lowering.GeneralWhileConditions,
				GeneralForStart:        cfg.Lowering.GeneralForStart,
			},
		},
		Memory: driver.NewClassCache(8),
		Timer:  timer,
	}
	if useCache {
		disk, err := driver.OpenDiskCache("pascalc")
		if err != nil {
			return opts, fmt.Errorf("failed to open cache: %w", err)
		}
		opts.Disk = disk
	}
	return opts, nil
}

// newTimer returns a Timer when --timings is set, nil otherwise.
func newTimer(cmd *cobra.Command) (*observ.Timer, error) {
	on, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if !on {
		return nil, nil
	}
	return observ.NewTimer(), nil
}
