package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FRESHCART_CONFIG", path)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	writeConfig(t, `{"backend":{"base_url":"http://backend:8080"}}`)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "http://backend:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 15, cfg.Backend.Timeout)
	assert.Contains(t, cfg.Proxy.NormalizePaths, "/api/auth/me")
	assert.Contains(t, cfg.Proxy.NormalizePaths, "/api/users/onboarding-status")
	assert.Contains(t, cfg.Guard.ProtectedPaths, "/checkout")
	assert.Contains(t, cfg.Guard.PublicPaths, "/login")
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	writeConfig(t, `{"backend":{"base_url":"http://from-file"},"places":{"api_key":"file-key"}}`)
	t.Setenv("BACKEND_URL", "http://from-env")
	t.Setenv("PLACES_API_KEY", "env-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.Backend.BaseURL)
	assert.Equal(t, "env-key", cfg.Places.APIKey)
}

func TestLoadConfigMissingFileFails(t *testing.T) {
	t.Setenv("FRESHCART_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
