package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 4, cfg.Runner.Parallelism)
	assert.Equal(t, 60, cfg.Runner.TimeoutSeconds)
	assert.Equal(t, "documentation", cfg.Report.Format)
	assert.True(t, cfg.Report.Color)
	assert.Equal(t, "suites", cfg.Suites.Dir)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "history.db", cfg.History.Path)
	assert.Equal(t, 100, cfg.History.Keep)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.Equal(t, "matchers", cfg.Matchers.UserDir)
	assert.False(t, cfg.Logging.DebugMode)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesPartialFile(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".matcha"), 0755))
	content := "runner:\n  parallelism: 8\nreport:\n  format: json\n"
	require.NoError(t, os.WriteFile(Path(ws), []byte(content), 0644))

	cfg, err := Load(ws)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Runner.Parallelism)
	assert.Equal(t, "json", cfg.Report.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, "suites", cfg.Suites.Dir)
	assert.Equal(t, 100, cfg.History.Keep)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".matcha"), 0755))
	require.NoError(t, os.WriteFile(Path(ws), []byte("runner: [oops"), 0644))

	_, err := Load(ws)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	ws := t.TempDir()

	cfg := DefaultConfig()
	cfg.Runner.Parallelism = 2
	cfg.Logging.DebugMode = true
	require.NoError(t, cfg.Save(ws))

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Runner.Parallelism)
	assert.True(t, loaded.Logging.DebugMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"zero parallelism", func(c *Config) { c.Runner.Parallelism = 0 }, "parallelism"},
		{"negative timeout", func(c *Config) { c.Runner.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"bad format", func(c *Config) { c.Report.Format = "xml" }, "report format"},
		{"negative keep", func(c *Config) { c.History.Keep = -5 }, "history.keep"},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -1 }, "debounce_ms"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "1m0s", cfg.GetRunTimeout().String())
	assert.Equal(t, "5s", cfg.GetLoadTimeout().String())
	assert.Equal(t, "500ms", cfg.GetDebounce().String())

	cfg.Runner.TimeoutSeconds = 0
	cfg.Matchers.LoadTimeoutSeconds = 0
	cfg.Watch.DebounceMs = 0
	assert.Equal(t, "1m0s", cfg.GetRunTimeout().String(), "zero falls back to default")
	assert.Equal(t, "5s", cfg.GetLoadTimeout().String())
	assert.Equal(t, "500ms", cfg.GetDebounce().String())

	cfg.Runner.TimeoutSeconds = 90
	assert.Equal(t, "1m30s", cfg.GetRunTimeout().String())
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Set("runner.parallelism", "8"))
	assert.Equal(t, 8, cfg.Runner.Parallelism)

	require.NoError(t, cfg.Set("report.format", "json"))
	assert.Equal(t, "json", cfg.Report.Format)

	require.NoError(t, cfg.Set("report.color", "false"))
	assert.False(t, cfg.Report.Color)

	require.NoError(t, cfg.Set("history.enabled", "false"))
	assert.False(t, cfg.History.Enabled)

	require.NoError(t, cfg.Set("logging.debug_mode", "true"))
	assert.True(t, cfg.Logging.DebugMode)
}

func TestSetRejectsBadInput(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Set("runner.parallelism", "many")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an integer")

	err = cfg.Set("report.color", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a boolean")

	err = cfg.Set("nope.nope", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")

	// Values that parse but fail validation are rejected too.
	err = cfg.Set("report.format", "xml")
	require.Error(t, err)
}
