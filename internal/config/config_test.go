package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/halvard/affinityctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
interval = 5
autopin-interval = 3
threshold = 150.0
duration = 20
command-timeout = 10
telemetry = true
database = "/path/to/telemetry.db"
log-level = "debug"
`)
	configPath := filepath.Join(tempDir, "affinityctl.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("AFFINITYCTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval, "Expected Interval 5")
	assert.Equal(t, 3, cfg.AutoPinInterval, "Expected AutoPinInterval 3")
	assert.InDelta(t, 150.0, cfg.Threshold, 0.001, "Expected Threshold 150")
	assert.Equal(t, 20, cfg.Duration, "Expected Duration 20")
	assert.Equal(t, 10, cfg.CommandTimeout, "Expected CommandTimeout 10")
	assert.True(t, cfg.Telemetry, "Expected Telemetry true")
	assert.Equal(t, "/path/to/telemetry.db", cfg.TelemetryDB, "Expected TelemetryDB /path/to/telemetry.db")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AFFINITYCTL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultInterval, cfg.Interval, "Expected default Interval")
	assert.Equal(t, config.DefaultAutoPinInterval, cfg.AutoPinInterval, "Expected default AutoPinInterval")
	assert.InDelta(t, config.DefaultThreshold, cfg.Threshold, 0.001, "Expected default Threshold")
	assert.Equal(t, config.DefaultDuration, cfg.Duration, "Expected default Duration")
	assert.False(t, cfg.Telemetry, "Expected default Telemetry false")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.Zero(t, cfg.PinPID, "Expected no one-shot pin by default")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
This is not a valid TOML file
`)
	configPath := filepath.Join(tempDir, "affinityctl.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("AFFINITYCTL_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
log-level = "invalid"
`)
	configPath := filepath.Join(tempDir, "affinityctl.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("AFFINITYCTL_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestInvalidInterval(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
interval = 0
`)
	configPath := filepath.Join(tempDir, "affinityctl.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("AFFINITYCTL_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
}

func TestLogLevelFlag(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "--log-level", "debug"}
	t.Setenv("AFFINITYCTL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}
