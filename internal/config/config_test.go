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
	t.Setenv("SESSION_STORE", "")
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.App.Addr())
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, "user-token", cfg.Session.CookieName)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Gate.ValidationTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Session.PageCacheTTL())
	assert.Zero(t, cfg.Session.IdleTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "MEMORY")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/")
	t.Setenv("GATE_VALIDATION_TIMEOUT_SECONDS", "2")
	t.Setenv("SESSION_IDLE_TTL_MINUTES", "90")
	t.Setenv("PAGE_CACHE_TTL_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Gate.ValidationTimeout())
	assert.Equal(t, 90*time.Minute, cfg.Session.IdleTTL())
	assert.Zero(t, cfg.Session.PageCacheTTL())
}

func TestLoad_RejectsUnknownStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_STORE")
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.env")
	require.NoError(t, os.WriteFile(path, []byte("PORTAL_TEST_COOKIE=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PORTAL_TEST_COOKIE") })
	t.Setenv("SESSION_STORE", "")
	t.Setenv("SESSION_COOKIE_NAME", "")

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("PORTAL_TEST_COOKIE"))
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
