package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.LockTimeout)
	assert.Equal(t, 10*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "backendToken", cfg.Auth.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Hour, cfg.PayPal.CertCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.PayPal.LockTTL)
	assert.Equal(t, "SANDBOX", cfg.PayPal.Environment())
	assert.Empty(t, cfg.PayPal.PlanIDs["MONTHLY"])
	assert.False(t, cfg.Telemetry.OtelEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/jeezy")
	t.Setenv("DB_LOCK_TIMEOUT", "2s")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("PAYPAL_HTTP_TIMEOUT", "not-a-duration")
	t.Setenv("PAYPAL_API_BASE_URL", "https://api-m.paypal.com")
	t.Setenv("PAYPAL_PRODUCT_ID", "PROD-1")
	t.Setenv("PAYPAL_PLAN_ANNUAL", "P-ANNUAL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Database.LockTimeout)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.True(t, cfg.Telemetry.OtelEnabled)
	assert.Equal(t, 10*time.Second, cfg.PayPal.HTTPTimeout)
	assert.Equal(t, "LIVE", cfg.PayPal.Environment())
	assert.Equal(t, "PROD-1", cfg.PayPal.ProductID)
	assert.Equal(t, "P-ANNUAL", cfg.PayPal.PlanIDs["ANNUAL"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "postgres without dsn",
			cfg:     Config{Database: DatabaseConfig{Driver: DriverPostgres}, Auth: AuthConfig{JWTSecret: "s"}},
			wantErr: "DB_CONNECTION_STRING",
		},
		{
			name:    "missing secret",
			cfg:     Config{Database: DatabaseConfig{Driver: DriverMemory}},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "unknown driver",
			cfg:     Config{Database: DatabaseConfig{Driver: "sqlite"}, Auth: AuthConfig{JWTSecret: "s"}},
			wantErr: "DB_DRIVER",
		},
		{
			name: "memory ok",
			cfg:  Config{Database: DatabaseConfig{Driver: DriverMemory}, Auth: AuthConfig{JWTSecret: "s"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
