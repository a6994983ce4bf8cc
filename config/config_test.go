package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "marketplace.events", cfg.EventsExchange)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "3000")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}
