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

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(nil, env(map[string]string{"DEVLIFE_ENV_FILE": ""}))
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.IdleTimeout)
	assert.Zero(t, cfg.Seed)
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "devlife.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DEVLIFE_DATA_DIR=/from/file\nDEVLIFE_SEED=11\nPORT=8080\n"), 0644))

	cfg, err := Load(nil, env(map[string]string{
		"DEVLIFE_ENV_FILE":  envFile,
		"DEVLIFE_SEED":      "42",
		"DEVLIFE_LOG_LEVEL": "DEBUG",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.DataDir)
	assert.Equal(t, uint64(42), cfg.Seed, "environment beats the env file")
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	cfg, err = Load([]string{"--addr", "127.0.0.1:9000", "--seed=7", "--log-level", "warn", "--catalog", "extra.yaml"},
		env(map[string]string{"DEVLIFE_ENV_FILE": envFile, "DEVLIFE_ADDR": ":1"}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "extra.yaml", cfg.CatalogPath)
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(nil, env(map[string]string{"DEVLIFE_ENV_FILE": filepath.Join(t.TempDir(), "nope.env")}))
	assert.NoError(t, err)
}

func TestInvalidValues(t *testing.T) {
	none := map[string]string{"DEVLIFE_ENV_FILE": ""}

	_, err := Load([]string{"--log-level", "loud"}, env(none))
	assert.Error(t, err)

	_, err = Load(nil, env(map[string]string{"DEVLIFE_ENV_FILE": "", "DEVLIFE_SEED": "-1"}))
	assert.Error(t, err)

	_, err = Load([]string{"--bogus"}, env(none))
	assert.Error(t, err)
}
