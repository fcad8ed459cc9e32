package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/wikisophy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
	assert.Equal(t, "philosophy", cfg.Journey.Target)
	assert.Equal(t, 50, cfg.Journey.MaxSteps)
	assert.Equal(t, 10, cfg.Server.SearchLimit)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "wikisophy.yaml", `
journey:
  target: Logic
  max_steps: 20
wikipedia:
  language: pt
  mode: page
  timeout: 3s
cache:
  backend: redis
  redis:
    addr: cache:6379
    db: "2"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Logic", cfg.Journey.Target)
	assert.Equal(t, 20, cfg.Journey.MaxSteps)
	assert.Equal(t, "pt", cfg.Wikipedia.Language)
	assert.Equal(t, "page", cfg.Wikipedia.Mode)
	assert.Equal(t, 3*time.Second, cfg.Wikipedia.Timeout)
	assert.Equal(t, config.CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, "wikisophy:cache:", cfg.Cache.Redis.Prefix, "unset keys keep their default")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "wikisophy.yaml", "journey:\n  max_steps: 20\n")
	t.Setenv("WIKISOPHY_MAX_STEPS", "7")
	t.Setenv("WIKISOPHY_HTTP_TIMEOUT", "1500ms")
	t.Setenv("WIKISOPHY_LOG_FORMAT", "json")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Journey.MaxSteps)
	assert.Equal(t, 1500*time.Millisecond, cfg.Wikipedia.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := writeFile(t, dir, "custom.env", "WIKISOPHY_LANGUAGE=de\n")
	t.Setenv("WIKISOPHY_ENV_FILE", envFile)
	t.Cleanup(func() { os.Unsetenv("WIKISOPHY_LANGUAGE") })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Wikipedia.Language)
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"Unknown Key", "journey:\n  tagret: Logic\n", "tagret"},
		{"Budget Too Small", "journey:\n  max_steps: 0\n", "journey.max_steps"},
		{"Bad Mode", "wikipedia:\n  mode: html\n", "wikipedia.mode"},
		{"Bad Duration", "cache:\n  ttl: soon\n", "decode configuration"},
		{"Redis Without Address", "cache:\n  backend: redis\n  redis:\n    addr: \"\"\n", "cache.redis.addr"},
		{"Bad Log Level", "log:\n  level: loud\n", "log.level"},
		{"Malformed YAML", "journey: [", "parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.yaml", tt.content)
			_, err := config.Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLogConfig_NewLogger(t *testing.T) {
	logger, err := config.LogConfig{Level: "debug", Format: "json"}.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = config.LogConfig{Level: "loud", Format: "text"}.NewLogger()
	assert.Error(t, err)
}
