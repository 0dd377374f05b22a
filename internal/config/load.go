package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultConfigPath returns the config file the CLI reads when no --config
// flag is given. Lookup order:
//  1. .tooban/config.yaml (current directory)
//  2. ~/.config/tooban/config.yaml (user config)
//
// The local path is returned when neither exists, so a freshly written
// default lands next to the project.
func DefaultConfigPath() string {
	local := filepath.Join(".tooban", "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return local
	}
	user := filepath.Join(home, ".config", "tooban", "config.yaml")
	if _, err := os.Stat(user); err == nil {
		return user
	}
	return local
}

// ApplyDefaults seeds a viper instance with the default values, so keys
// absent from the file unmarshal to something sensible.
func ApplyDefaults(v *viper.Viper) {
	defaults := Defaults()
	v.SetDefault("auto_reload", defaults.AutoReload)
	v.SetDefault("schedule.slots.fixed", defaults.Schedule.Slots.Fixed)
	v.SetDefault("schedule.min_rest_gap", defaults.Schedule.MinRestGap)
	v.SetDefault("schedule.max_run_length", defaults.Schedule.MaxRunLength)
	v.SetDefault("schedule.max_solutions", defaults.Schedule.MaxSolutions)
	v.SetDefault("schedule.disperse", defaults.Schedule.Disperse)
	v.SetDefault("schedule.fairness_group", defaults.Schedule.FairnessGroup)
	v.SetDefault("schedule.fairness_tolerance", defaults.Schedule.FairnessTolerance)
	v.SetDefault("schedule.fairness_as_hard", defaults.Schedule.FairnessAsHard)
	v.SetDefault("export.title", defaults.Export.Title)
	v.SetDefault("history.enabled", defaults.History.Enabled)
	v.SetDefault("history.path", defaults.History.Path)
	v.SetDefault("ui.show_counts", defaults.UI.ShowCounts)
	v.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
}

// LoadFile reads and validates one config file. Used by the watcher on
// reload and anywhere a config is needed outside the CLI's viper globals.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	ApplyDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
