package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.Equal(t, "sequential", cfg.Batch)
	assert.False(t, cfg.Debug)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "not found")
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	doc := `
server:
  port: 9090
mcp:
  transport: sse
log:
  level: debug
batch: concurrent
debug: true
redact: [api_key, "^secret"]
tools: tools.yaml
redis:
  url: redis://localhost:6379/0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Metrics, "unset fields keep defaults")
	assert.Equal(t, "sse", cfg.MCP.Transport)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "concurrent", cfg.Batch)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"api_key", "^secret"}, cfg.Redact)
	assert.Equal(t, "tools.yaml", cfg.Tools)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "relay:", cfg.Redis.Prefix)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":7000},"debug":true}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Debug)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, envMap(map[string]string{
		"RELAY_PORT":          "3000",
		"RELAY_DEBUG":         "true",
		"RELAY_BATCH":         "concurrent",
		"RELAY_REDACT":        "token, password ,",
		"RELAY_MCP_TRANSPORT": "sse",
		"RELAY_LOG_LEVEL":     "",
	}))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "concurrent", cfg.Batch)
	assert.Equal(t, []string{"token", "password"}, cfg.Redact)
	assert.Equal(t, "sse", cfg.MCP.Transport)
	assert.Equal(t, "info", cfg.Log.Level, "empty values are ignored")
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, applyEnv(&cfg, envMap(map[string]string{"RELAY_PORT": "eighty"})), "RELAY_PORT")

	cfg = Default()
	assert.ErrorContains(t, applyEnv(&cfg, envMap(map[string]string{"RELAY_DEBUG": "maybe"})), "RELAY_DEBUG")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("RELAY_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}
