package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesHardcodedDefaultsWithNoEnvOrOverlay(t *testing.T) {
	for _, k := range []string{"KERNEL_CONFIG_FILE", "KERNEL_HOST", "KERNEL_PORT", "KERNEL_MODEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
}

func TestLoadPrefersYAMLOverlayOverHardcodedDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: 10.0.0.5\nport: 9000\nmodel: overlay-model\n"), 0o600))

	t.Setenv("KERNEL_CONFIG_FILE", path)
	t.Setenv("KERNEL_HOST", "")
	t.Setenv("KERNEL_PORT", "")
	t.Setenv("KERNEL_MODEL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "overlay-model", cfg.Model)
}

func TestLoadEnvVarOverridesYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: 10.0.0.5\n"), 0o600))

	t.Setenv("KERNEL_CONFIG_FILE", path)
	t.Setenv("KERNEL_HOST", "192.168.1.1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", cfg.Host)
}

func TestLoadExpandsEnvVarsInsideOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sandbox_url: ${SANDBOX_HOST}\n"), 0o600))

	t.Setenv("KERNEL_CONFIG_FILE", path)
	t.Setenv("KERNEL_SANDBOX_URL", "")
	t.Setenv("SANDBOX_HOST", "http://sandbox.internal:9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://sandbox.internal:9090", cfg.SandboxURL)
}

func TestLoadMissingOverlayFileIsNotAnError(t *testing.T) {
	t.Setenv("KERNEL_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load("")
	assert.NoError(t, err)
}

func TestExpandEnvVarsSupportsDefaultSyntax(t *testing.T) {
	t.Setenv("UNSET_VAR", "")
	assert.Equal(t, "fallback", ExpandEnvVars("${UNSET_VAR:-fallback}"))

	t.Setenv("SET_VAR", "value")
	assert.Equal(t, "value", ExpandEnvVars("${SET_VAR:-fallback}"))
	assert.Equal(t, "value", ExpandEnvVars("${SET_VAR}"))
}

func TestHasSearchRequiresBothCredentials(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasSearch())

	cfg.GoogleSearchAPIKey = "key"
	assert.False(t, cfg.HasSearch())

	cfg.GoogleSearchEngineID = "engine"
	assert.True(t, cfg.HasSearch())
}
