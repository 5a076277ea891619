package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "admin@tunex.com")
	cfg := FromEnv()

	assert.Equal(t, "admin@tunex.com", cfg.AdminEmail)
	assert.Equal(t, "TUNEX_ADMIN", cfg.AdminUsername)
	assert.False(t, cfg.StrictReorder)
	assert.Equal(t, int64(50)<<20, cfg.MaxUploadBytes)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("PLAYLIST_STRICT_REORDER", "true")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("UPLOAD_DIR", "/data")
	t.Setenv("BCRYPT_COST", "12")

	cfg := FromEnv()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.True(t, cfg.StrictReorder)
	assert.Equal(t, 2*time.Hour, cfg.JWTTokenTTL)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "/data/audio", cfg.AudioUploadDir)
	assert.Equal(t, 12, cfg.BcryptCost)
}
