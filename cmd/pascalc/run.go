package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pascalc/internal/bytecode"
	"pascalc/internal/driver"
	"pascalc/internal/trace"
	"pascalc/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] FILE",
	Short: "Lower a unit (or load a .pcb class) and execute it on the VM",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Int64("max-steps", 0, "instruction budget, 0 = [vm].max_steps")
}

func runRun(cmd *cobra.Command, args []string) error {
	maxSteps := settings.VM.MaxSteps
	if cmd.Flags().Changed("max-steps") {
		v, err := cmd.Flags().GetInt64("max-steps")
		if err != nil {
			return err
		}
		maxSteps = v
	}
	timer, err := newTimer(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	class, err := loadClass(cmd, args[0])
	if err != nil {
		return err
	}

	machine := vm.New(class, vm.NewDefaultRuntime(), vm.Options{
		MaxSteps: maxSteps,
		Tracer:   trace.FromContext(ctx),
		Parent:   trace.ParentFrom(ctx),
	})
	err = timer.Track("run "+class.Name, func() error { return machine.Run(ctx) })
	if timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	var vmErr *vm.Error
	if errors.As(err, &vmErr) {
		fmt.Fprint(cmd.ErrOrStderr(), vmErr.Report())
		return fmt.Errorf("%s: %w", args[0], vmErr.Code)
	}
	return err
}

// loadClass decodes a .pcb class, or lowers a unit file.
func loadClass(cmd *cobra.Command, path string) (*bytecode.Class, error) {
	if filepath.Ext(path) == ".pcb" {
		// #nosec G304 -- path is a user-supplied input file
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		class, err := bytecode.DecodeClass(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return class, nil
	}
	opts, err := lowerOptions(settings, nil, settings.Build.Cache)
	if err != nil {
		return nil, err
	}
	unit, err := driver.LoadUnit(path)
	if err != nil {
		return nil, err
	}
	res, err := driver.LowerUnit(cmd.Context(), unit, &opts)
	if err != nil {
		return nil, err
	}
	return res.Lowered.Class, nil
}
