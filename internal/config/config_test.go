package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("GATEWAY_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Gateway.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL.Std())
}

func TestLoadFailsWithoutGatewaySecret(t *testing.T) {
	t.Setenv("GATEWAY_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_SECRET")
}

func TestYAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9999"
gateway:
  secret: file-secret
  currency: USD
  timeout: 2s
auth:
  token_ttl: 1h
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "file-secret", cfg.Gateway.Secret)
	assert.Equal(t, "USD", cfg.Gateway.Currency)
	assert.Equal(t, 2*time.Second, cfg.Gateway.Timeout.Std())
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL.Std())
	// Untouched keys keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  secret: file-secret\n"), 0o600))

	t.Setenv("GATEWAY_SECRET", "env-secret")
	t.Setenv("HTTP_ADDR", ":7777")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Gateway.Secret)
	assert.Equal(t, ":7777", cfg.HTTP.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
