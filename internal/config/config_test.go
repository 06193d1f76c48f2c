package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, 24*time.Hour, cfg.CancellationWindow)
	assert.Equal(t, 24*time.Hour, cfg.SecurityHold)
	assert.Equal(t, 48*time.Hour, cfg.ReviewBlindWindow)
	assert.Equal(t, "0.2", cfg.FeeRate().String())
	assert.Equal(t, "100", cfg.FeeMin().String())
	assert.Equal(t, 3, cfg.StudioLateCancelLimit)
	assert.Equal(t, 90*24*time.Hour, cfg.NotificationRetention)
	assert.False(t, cfg.IsProd())
}

func TestLoad_OverridesAndLists(t *testing.T) {
	t.Setenv("PAYMENT_WINDOW", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_ProdRejectsDefaultSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "real-secret")
	_, err = Load()
	assert.ErrorContains(t, err, "INTERNAL_TOKEN")

	t.Setenv("INTERNAL_TOKEN", "real-token")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_RejectsBadFeeRate(t *testing.T) {
	t.Setenv("PLATFORM_FEE_RATE", "1.5")

	_, err := Load()
	assert.ErrorContains(t, err, "PLATFORM_FEE_RATE")
}

func TestLoad_RejectsNonPositiveWindow(t *testing.T) {
	t.Setenv("SECURITY_HOLD", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "SECURITY_HOLD")
}
