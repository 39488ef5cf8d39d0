package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Empty(t, c.Token)
}

func TestLoadConfig_DefaultsOnly(t *testing.T) {
	cfg, err := LoadConfig(nil, noEnv)
	require.NoError(t, err)

	want := &Config{ServerURL: "http://127.0.0.1:8080", RequestTimeout: 10 * time.Second}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://json:1","request_timeout":"3s"}`), 0o600))

	env := envOf(map[string]string{EnvServerURL: "http://env:2", EnvToken: "tok"})

	t.Run("env over json", func(t *testing.T) {
		cfg, err := LoadConfig([]string{"-c", path}, env)
		require.NoError(t, err)
		assert.Equal(t, "http://env:2", cfg.ServerURL)
		assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "tok", cfg.Token)
	})

	t.Run("flags over env", func(t *testing.T) {
		cfg, err := LoadConfig([]string{"-c", path, "-a", "http://flag:3", "-t", "7"}, env)
		require.NoError(t, err)
		assert.Equal(t, "http://flag:3", cfg.ServerURL)
		assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))

	_, err := LoadConfig([]string{"-config", bad}, noEnv)
	require.Error(t, err)

	_, err = LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")}, noEnv)
	require.Error(t, err)

	_, err = LoadConfig([]string{"-t", "abc"}, noEnv)
	require.Error(t, err)
}

func TestParseJson_KeepsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://only-url"}`), 0o600))

	cfg := &Config{ServerURL: "x", RequestTimeout: 42 * time.Second}
	require.NoError(t, parseJson(cfg, []string{"-c=" + path}))

	assert.Equal(t, "http://only-url", cfg.ServerURL)
	assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
}
