package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REMOTE_SERVER_URL", "PORT", "STATIC_DIR", "SESSION_SECRET", "AUTH_USERNAME",
		"AUTH_PASSWORD", "AUTH_PASSWORD_HASH", "LOG_LEVEL", "HEALTH_PROBE_RATE",
	} {
		t.Setenv(key, "")
	}
	// keep a stray .env in the package dir from leaking in
	t.Chdir(t.TempDir())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ServerAddr)
	assert.Equal(t, "http://localhost:8000", cfg.RemoteServerURL)
	assert.Equal(t, 180*time.Second, cfg.Timeouts.Generate.Std())
	assert.Equal(t, 180*time.Second, cfg.Timeouts.ConfirmPost.Std())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Regenerate.Std())
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Health.Std())
	assert.InDelta(t, 0.1, cfg.ProbeRate(), 1e-9)
	assert.True(t, cfg.UsesDefaultCredentials())
}

func TestLoad_JSONFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_addr": ":9090",
		"remote_server_url": "http://gen.internal:8000",
		"health_probe_rate": 0,
		"timeouts": {"generate": "5m", "regenerate": 12},
		"auth": {"username": "editor", "password": "s3cret", "session_secret": "abc"}
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "http://gen.internal:8000", cfg.RemoteServerURL)
	assert.Equal(t, 5*time.Minute, cfg.Timeouts.Generate.Std())
	assert.Equal(t, 12*time.Second, cfg.Timeouts.Regenerate.Std())
	assert.Equal(t, 180*time.Second, cfg.Timeouts.ConfirmPost.Std())
	assert.Equal(t, 0.0, cfg.ProbeRate())
	assert.Equal(t, "editor", cfg.Auth.Username)
	assert.False(t, cfg.UsesDefaultCredentials())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REMOTE_SERVER_URL", "http://python:8000")
	t.Setenv("PORT", "4000")
	t.Setenv("AUTH_PASSWORD", "hunter2")
	t.Setenv("SESSION_SECRET", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://python:8000", cfg.RemoteServerURL)
	assert.Equal(t, ":4000", cfg.ServerAddr)
	assert.Equal(t, "hunter2", cfg.Auth.Password)
	assert.Equal(t, "from-env", cfg.Auth.SessionSecret)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cases := map[string]string{
		"bad url":      `{"remote_server_url": "localhost"}`,
		"bad rate":     `{"health_probe_rate": 1.5}`,
		"bad duration": `{"timeouts": {"generate": "soon"}}`,
		"not json":     `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "c.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadClient(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadClient(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProxyURL, cfg.ProxyURL)
	assert.Equal(t, DefaultTheme, cfg.Theme)

	path := filepath.Join(dir, "client.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
proxy_url = "https://compose.example.com/"
username = " editor "
password = "pw"
theme = "Plain"
`), 0o600))

	cfg, err = LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "https://compose.example.com", cfg.ProxyURL)
	assert.Equal(t, "editor", cfg.Username)
	assert.Equal(t, "pw", cfg.Password)
	assert.Equal(t, "plain", cfg.Theme)

	require.NoError(t, os.WriteFile(path, []byte(`proxy_url = [`), 0o600))
	_, err = LoadClient(path)
	assert.Error(t, err)
}
