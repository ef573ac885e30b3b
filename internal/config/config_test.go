package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("WORKERS", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("MAX_UPLOAD_MB", "")

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 1, cfg.NameMinTokens)
	assert.Equal(t, "always", cfg.PassportRule)
	assert.False(t, cfg.Production())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("WORKERS", "8")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("WHATSAPP_TIMEOUT", "5s")
	t.Setenv("S3_PATH_STYLE", "false")
	t.Setenv("SWEEP_ENABLED", "0")
	t.Setenv("SWEEP_INTERVAL", "2m")

	cfg := FromEnv()
	assert.Equal(t, ":9000", cfg.Addr)
	assert.True(t, cfg.Production())
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.WhatsApp.Timeout)
	assert.False(t, cfg.S3.PathStyle)
	assert.False(t, cfg.SweepEnabled)
	assert.Equal(t, 2*time.Minute, cfg.SweepInterval)
}

func TestLocationFallback(t *testing.T) {
	cfg := Config{Timezone: "Not/AZone"}
	_, offset := time.Now().In(cfg.Location()).Zone()
	assert.Equal(t, 2*3600, offset)
}
