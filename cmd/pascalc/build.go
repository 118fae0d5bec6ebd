package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pascalc/internal/buildpipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] FILE...",
	Short: "Lower unit files and write one class file per program",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().String("out", "", "output directory (default [build].out_dir)")
	buildCmd.Flags().String("format", "", "output format jasmin|msgpack (default [build].format)")
	buildCmd.Flags().Int("jobs", 0, "units lowered in parallel (default [build].jobs, 0 = GOMAXPROCS)")
	buildCmd.Flags().Bool("no-cache", false, "ignore and do not update the lowering cache")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := settings
	if err := overrideString(cmd, "out", &cfg.Build.OutDir); err != nil {
		return err
	}
	if err := overrideString(cmd, "format", &cfg.Build.Format); err != nil {
		return err
	}
	format, err := buildpipeline.ParseOutputFormat(cfg.Build.Format)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		if cfg.Build.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return err
		}
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := parseSwitch("ui", uiFlag)
	if err != nil {
		return err
	}

	timer, err := newTimer(cmd)
	if err != nil {
		return err
	}
	lowerOpts, err := lowerOptions(cfg, timer, cfg.Build.Cache && !noCache)
	if err != nil {
		return err
	}
	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = ""
	}
	req := &buildpipeline.BuildRequest{
		Files:   args,
		BaseDir: baseDir,
		OutDir:  cfg.Build.OutDir,
		Format:  format,
		Jobs:    cfg.Build.Jobs,
		Lower:   lowerOpts,
	}

	var res *buildpipeline.BuildResult
	if shouldUseTUI(mode, cfg) {
		res, err = runBuildWithUI(cmd.Context(), "pascalc build", buildpipeline.DisplayPaths(args, baseDir), req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
		if res != nil {
			printBuildSummary(cmd.OutOrStdout(), res)
		}
	}
	if res != nil {
		if on, _ := cmd.Flags().GetBool("timings"); on {
			printStageTimings(cmd.ErrOrStderr(), res.Timings)
			fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
		}
	}
	return err
}
