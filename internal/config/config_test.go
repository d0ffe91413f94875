package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_AppliesDefaultsForZeroValues(t *testing.T) {
	path := writeConfig(t, `
rules:
  header_ignore: "rules/header_ignore.txt"
database:
  dsn: "postgres://localhost/analyzer"
queue:
  brokers: ["localhost:9092"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "rules/header_ignore.txt", cfg.Rules.HeaderIgnore)
	assert.NotZero(t, cfg.Analysis.MaxSwaps)
	assert.NotZero(t, cfg.Analysis.Seed)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, float64(50), cfg.Queue.PublishPerSecond)
}

func TestLoadConfig_ExplicitValuesOverrideDefaults(t *testing.T) {
	path := writeConfig(t, `
analysis:
  max_swaps: 16
  seed: 42
database:
  max_open_conns: 3
  max_idle_conns: 1
  conn_max_lifetime: 5m
queue:
  publish_per_second: 200
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Analysis.MaxSwaps)
	assert.EqualValues(t, 42, cfg.Analysis.Seed)
	assert.Equal(t, 3, cfg.Database.MaxOpenConns)
	assert.Equal(t, 1, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, float64(200), cfg.Queue.PublishPerSecond)
}

func TestLoadConfig_MissingFileReturnsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAMLReturnsError(t *testing.T) {
	path := writeConfig(t, "not: [valid: yaml")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
