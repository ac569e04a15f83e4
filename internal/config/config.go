// Package config loads and persists .matcha/config.yaml. A missing
// file is not an error; every field has a default so a workspace with
// no configuration behaves sensibly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all matcha configuration.
type Config struct {
	Runner   RunnerConfig   `yaml:"runner"`
	Report   ReportConfig   `yaml:"report"`
	Suites   SuitesConfig   `yaml:"suites"`
	History  HistoryConfig  `yaml:"history"`
	Watch    WatchConfig    `yaml:"watch"`
	Matchers MatchersConfig `yaml:"matchers"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RunnerConfig bounds suite evaluation.
type RunnerConfig struct {
	Parallelism    int `yaml:"parallelism"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ReportConfig selects the default output rendering.
type ReportConfig struct {
	Format string `yaml:"format"` // documentation, json
	Color  bool   `yaml:"color"`
}

// SuitesConfig locates suite files.
type SuitesConfig struct {
	Dir string `yaml:"dir"` // relative to the workspace root
}

// HistoryConfig controls run recording.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // relative to .matcha/
	Keep    int    `yaml:"keep"` // 0 keeps everything
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// MatchersConfig locates user matcher files.
type MatchersConfig struct {
	UserDir            string `yaml:"user_dir"` // relative to .matcha/
	LoadTimeoutSeconds int    `yaml:"load_timeout_seconds"`
}

// LoggingConfig controls the categorized debug logs. The logging
// package reads the same section with its own mirror struct.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			Parallelism:    4,
			TimeoutSeconds: 60,
		},
		Report: ReportConfig{
			Format: "documentation",
			Color:  true,
		},
		Suites: SuitesConfig{
			Dir: "suites",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "history.db",
			Keep:    100,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Matchers: MatchersConfig{
			UserDir:            "matchers",
			LoadTimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".matcha", "config.yaml")
}

// Load reads the workspace configuration. A missing file yields the
// defaults; environment overrides apply either way.
func Load(workspace string) (*Config, error) {
	cfg, err := LoadFile(workspace)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFile reads the workspace configuration without environment
// overrides. Save after LoadFile writes only defaults plus the file's
// own values, so edit commands never persist ambient MATCHA_* state.
func LoadFile(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the workspace.
func (c *Config) Save(workspace string) error {
	path := Path(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MATCHA_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Runner.Parallelism = n
		}
	}
	if v := os.Getenv("MATCHA_FORMAT"); v != "" {
		c.Report.Format = v
	}
	if v := os.Getenv("MATCHA_NO_COLOR"); v != "" {
		if on, err := strconv.ParseBool(v); err != nil || on {
			c.Report.Color = false
		}
	}
	if v := os.Getenv("MATCHA_HISTORY"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = on
		}
	}
	if v := os.Getenv("MATCHA_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// ValidFormats lists the supported report formats.
var ValidFormats = []string{"documentation", "json"}

// ValidLevels lists the supported log levels.
var ValidLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Runner.Parallelism < 1 {
		return fmt.Errorf("runner.parallelism must be at least 1 (got %d)", c.Runner.Parallelism)
	}
	if c.Runner.TimeoutSeconds < 0 {
		return fmt.Errorf("runner.timeout_seconds must not be negative (got %d)", c.Runner.TimeoutSeconds)
	}

	validFormat := false
	for _, f := range ValidFormats {
		if c.Report.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid report format: %s (valid: %v)", c.Report.Format, ValidFormats)
	}

	if c.History.Keep < 0 {
		return fmt.Errorf("history.keep must not be negative (got %d)", c.History.Keep)
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative (got %d)", c.Watch.DebounceMs)
	}
	if c.Matchers.LoadTimeoutSeconds < 0 {
		return fmt.Errorf("matchers.load_timeout_seconds must not be negative (got %d)", c.Matchers.LoadTimeoutSeconds)
	}

	if c.Logging.Level != "" {
		validLevel := false
		for _, l := range ValidLevels {
			if c.Logging.Level == l {
				validLevel = true
				break
			}
		}
		if !validLevel {
			return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
		}
	}

	return nil
}

// GetRunTimeout returns the overall run timeout as a duration.
func (c *Config) GetRunTimeout() time.Duration {
	if c.Runner.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Runner.TimeoutSeconds) * time.Second
}

// GetLoadTimeout returns the user matcher load timeout as a duration.
func (c *Config) GetLoadTimeout() time.Duration {
	if c.Matchers.LoadTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Matchers.LoadTimeoutSeconds) * time.Second
}

// GetDebounce returns the watch debounce window as a duration.
func (c *Config) GetDebounce() time.Duration {
	if c.Watch.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// Set updates a single field addressed by its dotted YAML path, as
// used by `matcha config set`. Values are parsed per-field.
func (c *Config) Set(key, value string) error {
	switch key {
	case "runner.parallelism":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		c.Runner.Parallelism = n
	case "runner.timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		c.Runner.TimeoutSeconds = n
	case "report.format":
		c.Report.Format = value
	case "report.color":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		c.Report.Color = on
	case "suites.dir":
		c.Suites.Dir = value
	case "history.enabled":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		c.History.Enabled = on
	case "history.path":
		c.History.Path = value
	case "history.keep":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		c.History.Keep = n
	case "watch.debounce_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		c.Watch.DebounceMs = n
	case "matchers.user_dir":
		c.Matchers.UserDir = value
	case "matchers.load_timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		c.Matchers.LoadTimeoutSeconds = n
	case "logging.debug_mode":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		c.Logging.DebugMode = on
	case "logging.level":
		c.Logging.Level = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}
