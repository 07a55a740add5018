package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8000/rpc", cfg.SurrealDBURL)
	assert.Equal(t, "memgate", cfg.SurrealDBNamespace)
	assert.Equal(t, "all-minilm:l6-v2", cfg.EmbeddingModel)
	assert.Equal(t, 384, cfg.EmbeddingDimension)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, 50, cfg.EphemeralCapacity)
	assert.Equal(t, 7, cfg.ConsentWindowDays)
	assert.Equal(t, 7*24*time.Hour, cfg.ConsentWindow())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SURREALDB_NAMESPACE", "custom")
	t.Setenv("MEMGATE_EPHEMERAL_CAPACITY", "20")
	t.Setenv("MEMGATE_CONSENT_WINDOW_DAYS", "3")
	t.Setenv("MEMGATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custom", cfg.SurrealDBNamespace)
	assert.Equal(t, 20, cfg.EphemeralCapacity)
	assert.Equal(t, 3*24*time.Hour, cfg.ConsentWindow())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadFileOverlayWinsOverEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
surrealdb:
  namespace: from-file
embedding:
  dimension: 768
consent_window_days: 14
`), 0o600))

	t.Setenv("SURREALDB_NAMESPACE", "from-env")
	t.Setenv("MEMGATE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SurrealDBNamespace)
	assert.Equal(t, 768, cfg.EmbeddingDimension)
	assert.Equal(t, 14, cfg.ConsentWindowDays)
	// Unset file fields keep their env or default values.
	assert.Equal(t, "memory", cfg.SurrealDBDatabase)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MEMGATE_EPHEMERAL_CAPACITY", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	t.Setenv("MEMGATE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("unknown"))
}
