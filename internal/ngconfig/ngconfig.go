// SPDX-License-Identifier: MPL-2.0

// Package ngconfig loads the optional user configuration file consulted
// at the start of every rebuild invocation (§3's NgConfig). It follows
// the teacher's internal/config package convention closely: Viper for
// file discovery/defaults layering, go-toml/v2 for the on-disk format.
package ngconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"

	"rebuildctl/internal/workflow/mode"
)

const (
	// AppName names the on-disk config directory, following the
	// teacher's AppName/ConfigDir convention.
	AppName = "rebuildctl"
	// ConfigFileName is the config file's base name, without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the on-disk config format.
	ConfigFileExt = "toml"
)

// AutoClean holds the auto_clean.* fields from §3.
type AutoClean struct {
	Enabled      bool              `toml:"enabled" mapstructure:"enabled"`
	OnSuccessFor []mode.Activation `toml:"on_success_for" mapstructure:"on_success_for"`
	KeepCount    int               `toml:"keep_count" mapstructure:"keep_count"`
	KeepDays     int               `toml:"keep_days" mapstructure:"keep_days"`
	RunGC        bool              `toml:"run_gc" mapstructure:"run_gc"`
	RunOptimise  bool              `toml:"run_optimise" mapstructure:"run_optimise"`
}

// NgConfig is the loaded user configuration (§3).
type NgConfig struct {
	AutoClean AutoClean `toml:"auto_clean" mapstructure:"auto_clean"`
}

// Default returns the NgConfig used when no config file is present,
// matching §3's stated defaults exactly.
func Default() *NgConfig {
	return &NgConfig{
		AutoClean: AutoClean{
			Enabled:      false,
			OnSuccessFor: []mode.Activation{mode.Switch, mode.Boot},
			KeepCount:    3,
			KeepDays:     14,
			RunGC:        false,
			RunOptimise:  false,
		},
	}
}

// ConfigDir returns the platform configuration directory, following the
// teacher's XDG/AppData/Library split in internal/config.ConfigDir.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Load reads and parses the configuration file, or returns the defaults
// when no file is present. A present-but-malformed file is a startup
// failure (§3: "malformed file → startup failure with a clear message").
func Load() (*NgConfig, error) {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileExt)

	cfgDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v.AddConfigPath(cfgDir)
	v.AddConfigPath(".")

	defaults := Default()
	v.SetDefault("auto_clean.enabled", defaults.AutoClean.Enabled)
	v.SetDefault("auto_clean.on_success_for", activationStrings(defaults.AutoClean.OnSuccessFor))
	v.SetDefault("auto_clean.keep_count", defaults.AutoClean.KeepCount)
	v.SetDefault("auto_clean.keep_days", defaults.AutoClean.KeepDays)
	v.SetDefault("auto_clean.run_gc", defaults.AutoClean.RunGC)
	v.SetDefault("auto_clean.run_optimise", defaults.AutoClean.RunOptimise)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw struct {
		AutoClean struct {
			Enabled      bool     `mapstructure:"enabled"`
			OnSuccessFor []string `mapstructure:"on_success_for"`
			KeepCount    int      `mapstructure:"keep_count"`
			KeepDays     int      `mapstructure:"keep_days"`
			RunGC        bool     `mapstructure:"run_gc"`
			RunOptimise  bool     `mapstructure:"run_optimise"`
		} `mapstructure:"auto_clean"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	modes, err := parseActivations(raw.AutoClean.OnSuccessFor)
	if err != nil {
		return nil, fmt.Errorf("parsing auto_clean.on_success_for: %w", err)
	}

	if raw.AutoClean.KeepCount < 0 {
		return nil, fmt.Errorf("auto_clean.keep_count must be non-negative, got %d", raw.AutoClean.KeepCount)
	}
	if raw.AutoClean.KeepDays < 0 {
		return nil, fmt.Errorf("auto_clean.keep_days must be non-negative, got %d", raw.AutoClean.KeepDays)
	}

	return &NgConfig{
		AutoClean: AutoClean{
			Enabled:      raw.AutoClean.Enabled,
			OnSuccessFor: modes,
			KeepCount:    raw.AutoClean.KeepCount,
			KeepDays:     raw.AutoClean.KeepDays,
			RunGC:        raw.AutoClean.RunGC,
			RunOptimise:  raw.AutoClean.RunOptimise,
		},
	}, nil
}

func activationStrings(modes []mode.Activation) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = m.String()
	}
	return out
}

func parseActivations(names []string) ([]mode.Activation, error) {
	out := make([]mode.Activation, 0, len(names))
	for _, n := range names {
		m, err := mode.ParseActivation(n)
		if err != nil {
			return nil, err
		}
		if slices.Contains(out, m) {
			return nil, fmt.Errorf("auto_clean.on_success_for lists %q more than once", n)
		}
		out = append(out, m)
	}
	return out, nil
}

// WriteDefault creates a default config file if one doesn't already
// exist, mirroring the teacher's CreateDefaultConfig.
func WriteDefault() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return nil
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}

	header := []byte("# rebuildctl configuration file\n# The auto_clean fields below are the full schema, at their defaults.\n\n")
	return os.WriteFile(cfgPath, append(header, data...), 0o644)
}
