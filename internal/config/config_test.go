package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"APP_ENV", "APP_PORT", "PORT", "AUTH_JWT_SECRET", "AUTH_ACCESS_TOKEN_TTL_MINUTES", "REDIS_DB", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
}

func TestLoadRefusesMissingSecretInProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")

	cfg, err := Load()
	require.ErrorIs(t, err, ErrMissingSecret)
	assert.Nil(t, cfg)
}

func TestLoadDefaultsToProductionPosture(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestServerRequiresPortOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "s3cr3t-s3cr3t-s3cr3t-s3cr3t-s3cr3t")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.App.Port)
	assert.ErrorIs(t, cfg.App.Validate(), ErrMissingPort)

	t.Setenv("PORT", "8080")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.App.Validate())
}

func TestLoadGeneratesEphemeralSecretInDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "development")

	first, err := Load()
	require.NoError(t, err)
	assert.True(t, first.Auth.SecretGenerated)
	assert.Len(t, first.Auth.JWTSecret, 64)
	assert.Equal(t, "5000", first.App.Port)

	second, err := Load()
	require.NoError(t, err)
	assert.NotEqual(t, first.Auth.JWTSecret, second.Auth.JWTSecret)
}

func TestLoadUsesConfiguredValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_JWT_SECRET", "configured-secret")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Auth.SecretGenerated)
	assert.Equal(t, "configured-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, "0.0.0.0:9000", cfg.App.Addr())
	assert.False(t, cfg.App.IsDevelopment())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("BUS_API_URL", "https://bus.geu.ac.in/")
	t.Setenv("BUS_SESSION_FILE", "/tmp/busctl/session.yaml")
	t.Setenv("BUS_HTTP_TIMEOUT_SECONDS", "3")

	cfg := LoadClient()
	assert.Equal(t, "https://bus.geu.ac.in", cfg.APIURL)
	assert.Equal(t, "/tmp/busctl/session.yaml", cfg.SessionFile)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout())
}

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("BUS_API_URL", "")
	t.Setenv("BUS_SESSION_FILE", "")
	t.Setenv("BUS_HTTP_TIMEOUT_SECONDS", "")

	cfg := LoadClient()
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Contains(t, cfg.SessionFile, "session.yaml")
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout())
}
