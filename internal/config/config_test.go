package config_test

import (
	"chaikada/backend/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestLoadDefaults verifies the fallbacks with a clean environment.
func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "SERVER_PORT", "DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT",
		"REDIS_ADDR", "REDIS_DB", "JWT_SECRET_KEY", "SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}

// TestLoadOverrides verifies environment values win over fallbacks.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SWEEP_INTERVAL", "90s")
	t.Setenv("DB_NAME", "chaikada_test")

	cfg := config.Load()

	assert.Equal(t, "9999", cfg.ServerPort)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.SweepInterval)
	assert.Contains(t, cfg.DSN(), "dbname=chaikada_test")
}

// TestLoadInvalidValues verifies malformed numbers fall back instead of
// failing.
func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SWEEP_INTERVAL", "sometimes")

	cfg := config.Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}
