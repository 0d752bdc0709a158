package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("BCRYPT_SALT_ROUNDS", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CORS_ORIGIN", "")
	t.Setenv("CORS_EXTRA_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 5, cfg.AuthRateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("CORS_ORIGIN", "https://app.example.com")
	t.Setenv("CORS_EXTRA_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{
		"https://app.example.com",
		"https://a.example.com",
		"https://b.example.com",
	}, cfg.CORSOrigins)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_EXPIRES_IN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseExpiry(t *testing.T) {
	d, err := parseExpiry("7d")
	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, d)

	d, err = parseExpiry("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = parseExpiry("xd")
	assert.Error(t, err)
}
