package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data/processed/processed-imports-exports.csv", cfg.Data.SourceFile)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FLUX_SERVER_PORT", "9090")
	t.Setenv("FLUX_LOGGING_LEVEL", "debug")
	t.Setenv("FLUX_DATA_SOURCE_FILE", "/tmp/flows.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/flows.csv", cfg.Data.SourceFile)
}

func TestLoad_YAMLFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server:\n  port: 7070\nlogging:\n  level: warn\n"), 0o644))

	t.Setenv("FLUX_CONFIG_FILE", path)
	t.Setenv("FLUX_LOGGING_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "file overrides defaults")
	assert.Equal(t, "error", cfg.Logging.Level, "env overrides file")
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "FLUX_LOGGING_LEVEL", "verbose"},
		{"bad log format", "FLUX_LOGGING_FORMAT", "xml"},
		{"port out of range", "FLUX_SERVER_PORT", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}
