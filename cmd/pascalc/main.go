package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pascalc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "pascalc",
	Short:         "Pascal statement lowering to stack bytecode",
	Long:          `pascalc lowers analysed Pascal units to stack-machine bytecode and runs them`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorFlag(cmd); err != nil {
			return err
		}
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd, cfg)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, cleanup)
		stopProfiles, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, stopProfiles)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		runCleanups()
	},
}

// cleanups flush the tracer and profiles set up for the running command.
var cleanups []func()

func runCleanups() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("config", "", "path to pascalc.toml (default: search upward)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("exectrace", "", "write a Go execution trace to file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when RunE fails
	runCleanups()
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
