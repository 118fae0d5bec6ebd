// Package config loads pascalc.toml, the per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the settings file searched for upward from the working
// directory.
const FileName = "pascalc.toml"

// Config is the decoded settings file with defaults applied.
type Config struct {
	Module   ModuleConfig   `toml:"module"`
	Lowering LoweringConfig `toml:"lowering"`
	Build    BuildConfig    `toml:"build"`
	Trace    TraceConfig    `toml:"trace"`
	VM       VMConfig       `toml:"vm"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
}

// ModuleConfig overrides naming of the lowered class.
type ModuleConfig struct {
	Namespace string `toml:"namespace"`
}

// LoweringConfig holds the default-off generalisations of statement
// lowering.
type LoweringConfig struct {
	GeneralWhileConditions bool `toml:"general_while_conditions"`
	GeneralForStart        bool `toml:"general_for_start"`
}

// BuildConfig configures `pascalc build`.
type BuildConfig struct {
	OutDir string `toml:"out_dir"`
	Format string `toml:"format"`
	Jobs   int    `toml:"jobs"`
	Cache  bool   `toml:"cache"`
}

// TraceConfig mirrors the --trace flags.
type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

// VMConfig configures `pascalc run`.
type VMConfig struct {
	MaxSteps int64 `toml:"max_steps"`
}

// Output formats accepted by build.format.
const (
	FormatJasmin  = "jasmin"
	FormatMsgpack = "msgpack"
)

// Default returns the settings used when no file is found.
func Default() Config {
	return Config{
		Build: BuildConfig{
			OutDir: "out",
			Format: FormatJasmin,
			Cache:  true,
		},
		Trace: TraceConfig{
			Level:  "off",
			Mode:   "stream",
			Output: "-",
		},
		VM: VMConfig{MaxSteps: 10_000_000},
	}
}

// Find looks for FileName in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the settings for startDir, falling back to
// Default when there is no file.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("module", "namespace") && strings.TrimSpace(cfg.Module.Namespace) == "" {
		return Config{}, fmt.Errorf("%s: [module].namespace must not be empty", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	switch c.Build.Format {
	case FormatJasmin, FormatMsgpack:
	default:
		return fmt.Errorf("[build].format %q (expected %s|%s)", c.Build.Format, FormatJasmin, FormatMsgpack)
	}
	if c.Build.Jobs < 0 {
		return fmt.Errorf("[build].jobs must be >= 0, got %d", c.Build.Jobs)
	}
	if c.VM.MaxSteps < 0 {
		return fmt.Errorf("[vm].max_steps must be >= 0, got %d", c.VM.MaxSteps)
	}
	return nil
}
