package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, "medsupply", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.PollInterval)
	assert.Equal(t, 30, cfg.Alerts.ExpiryWarningDays)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ALERT_POLL_INTERVAL", "90s")
	t.Setenv("ALERT_EXPIRY_WARNING_DAYS", "14")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := LoadConfig()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 90*time.Second, cfg.Alerts.PollInterval)
	assert.Equal(t, 14, cfg.Alerts.ExpiryWarningDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigFallsBackOnBadValues(t *testing.T) {
	t.Setenv("ALERT_POLL_INTERVAL", "not-a-duration")
	t.Setenv("ALERT_EXPIRY_WARNING_DAYS", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 5*time.Minute, cfg.Alerts.PollInterval)
	assert.Equal(t, 30, cfg.Alerts.ExpiryWarningDays)
}
