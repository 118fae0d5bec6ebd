package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pascalc/internal/config"
)

// settings is the config file with command-line overrides applied; it is
// resolved once per invocation by the root PersistentPreRunE.
var settings config.Config

func loadSettings(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return config.Config{}, err
	}
	if err := overrideString(cmd, "trace", &cfg.Trace.Output); err != nil {
		return config.Config{}, err
	}
	if err := overrideString(cmd, "trace-level", &cfg.Trace.Level); err != nil {
		return config.Config{}, err
	}
	if err := overrideString(cmd, "trace-mode", &cfg.Trace.Mode); err != nil {
		return config.Config{}, err
	}
	// --trace alone asks for phase-level events
	if cmd.Flags().Changed("trace") && !cmd.Flags().Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}
	settings = cfg
	return cfg, nil
}

func overrideString(cmd *cobra.Command, name string, dst *string) error {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return nil
	}
	*dst = flag.Value.String()
	return nil
}

func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	m, err := parseSwitch("color", mode)
	if err != nil {
		return err
	}
	switch m {
	case modeOn:
		color.NoColor = false
	case modeOff:
		color.NoColor = true
	}
	// auto: fatih/color already honours NO_COLOR and non-terminal stdout
	return nil
}
