package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "host=localhost")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RESET_TOKEN_TTL_MIN", "")
	t.Setenv("SMTP_HOST", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 10080, cfg.JWTExpiresMin)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.False(t, cfg.SMTPEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "host=localhost")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RESET_TOKEN_TTL_MIN", "15")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.SMTPEnabled())
}

func TestLoadPanicsWithoutSecret(t *testing.T) {
	t.Setenv("DB_DSN", "host=localhost")
	t.Setenv("JWT_SECRET", "")

	assert.PanicsWithValue(t, "missing env: JWT_SECRET", func() { Load() })
}
