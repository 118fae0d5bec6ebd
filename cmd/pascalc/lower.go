package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pascalc/internal/bytecode"
	"pascalc/internal/driver"
)

var lowerCmd = &cobra.Command{
	Use:   "lower FILE...",
	Short: "Print the lowered listing of unit files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timer, err := newTimer(cmd)
		if err != nil {
			return err
		}
		opts, err := lowerOptions(settings, timer, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, path := range args {
			var unit *driver.Unit
			err := timer.Track("load "+path, func() error {
				var loadErr error
				unit, loadErr = driver.LoadUnit(path)
				return loadErr
			})
			if err != nil {
				return err
			}
			res, err := driver.LowerUnit(cmd.Context(), unit, &opts)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := bytecode.WriteListing(out, res.Lowered.Class); err != nil {
				return err
			}
		}
		if timer != nil {
			fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
		}
		return nil
	},
}
