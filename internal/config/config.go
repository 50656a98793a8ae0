// Package config loads forgeplan settings from forgeplan.yaml and
// FORGEPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/forgeplan/internal/planner"
)

// Config represents the forgeplan configuration.
type Config struct {
	Planner PlannerConfig `mapstructure:"planner"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
}

// PlannerConfig holds the default query bounds.
type PlannerConfig struct {
	MaxDepth    int  `mapstructure:"max_depth"`
	MaxPlans    int  `mapstructure:"max_plans"`
	Deduplicate bool `mapstructure:"deduplicate"`
	ExpandLimit int  `mapstructure:"expand_limit"`
	TopK        int  `mapstructure:"top_k"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EnvPrefix is prepended to every environment override:
// FORGEPLAN_PLANNER_MAX_DEPTH overrides planner.max_depth.
const EnvPrefix = "FORGEPLAN"

func setDefaults(v *viper.Viper) {
	v.SetDefault("planner.max_depth", planner.DefaultMaxDepth)
	v.SetDefault("planner.max_plans", planner.DefaultMaxPlans)
	v.SetDefault("planner.deduplicate", true)
	v.SetDefault("planner.expand_limit", planner.DefaultExpandLimit)
	v.SetDefault("planner.top_k", 3)
	v.SetDefault("store.path", "forgeplan.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. An explicit path must exist; with an empty path
// forgeplan.yaml is searched in the working directory and
// $HOME/.config/forgeplan, and defaults apply when none is found.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("forgeplan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "forgeplan"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks bounds and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Planner.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("planner.max_depth must be > 0, got %d", c.Planner.MaxDepth))
	}
	if c.Planner.MaxPlans <= 0 {
		errs = append(errs, fmt.Errorf("planner.max_plans must be > 0, got %d", c.Planner.MaxPlans))
	}
	if c.Planner.ExpandLimit <= 0 {
		errs = append(errs, fmt.Errorf("planner.expand_limit must be > 0, got %d", c.Planner.ExpandLimit))
	}
	if c.Planner.TopK <= 0 {
		errs = append(errs, fmt.Errorf("planner.top_k must be > 0, got %d", c.Planner.TopK))
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, errors.New("store.path must be non-empty"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// PlannerOptions returns the configured solver bounds.
func (c *Config) PlannerOptions() planner.Options {
	return planner.Options{
		MaxDepth:    c.Planner.MaxDepth,
		MaxPlans:    c.Planner.MaxPlans,
		Deduplicate: c.Planner.Deduplicate,
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", name)
	}
}
