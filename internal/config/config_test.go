package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "simreg:wizard:", cfg.Session.CheckpointPrefix)
	assert.Equal(t, 59*time.Second, cfg.Wizard.ResendCooldown)
	assert.Equal(t, 300*time.Second, cfg.Wizard.OTPExpiry)
	assert.Equal(t, 3, cfg.Wizard.AddressFailThreshold)
	assert.Equal(t, "v1/ekyc/", cfg.Ekyc.BasePath)
	assert.Equal(t, "C04", cfg.Ekyc.ChannelID)
	assert.Equal(t, "PREPAID", cfg.Ekyc.SimType)
	assert.Equal(t, "poll", cfg.Processing.Mode)
	assert.Equal(t, 5*time.Second, cfg.Processing.Delay)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIMREG_SESSION_BACKEND", "postgres")
	t.Setenv("SIMREG_WIZARD_RESEND_COOLDOWN", "10s")
	t.Setenv("SIMREG_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SIMREG_PROCESSING_MODE", "delay")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Session.Backend)
	assert.Equal(t, 10*time.Second, cfg.Wizard.ResendCooldown)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "delay", cfg.Processing.Mode)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_RedisBackendRequiresURL(t *testing.T) {
	t.Setenv("SIMREG_SESSION_BACKEND", "redis")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_UnknownProcessingMode(t *testing.T) {
	t.Setenv("SIMREG_PROCESSING_MODE", "webhook")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	d := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", d.DSN())
}
