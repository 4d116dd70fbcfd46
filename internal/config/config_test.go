package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

func setRequired(t *testing.T) wallet.Address {
	t.Helper()
	w, err := wallet.NewWallet()
	require.NoError(t, err)
	t.Setenv("ADMIN_ADDRESS", w.Address().String())
	t.Setenv("JWT_SECRET", "0123456789abcdef-test")
	return w.Address()
}

func TestLoad_Defaults(t *testing.T) {
	admin := setRequired(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 5*time.Minute, cfg.JWT.LoginWindow)
	assert.False(t, cfg.Temporal.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)

	opts := cfg.LedgerOptions()
	assert.Equal(t, admin, opts.Admin)
	assert.Equal(t, ledger.OverpaymentRetain, opts.OverpaymentPolicy)
	assert.True(t, opts.DemoFlight.Enabled)
	assert.Equal(t, 100*24*time.Hour, opts.DemoFlight.DepartureOffset)
}

func TestLoad_FromEnvAndDotenv(t *testing.T) {
	setRequired(t)
	t.Setenv("OVERPAYMENT_POLICY", "refund")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("JWT_EXPIRY", "not-a-duration")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_BACKEND=badger\nBADGER_DIR=/tmp/ledger-test\nDEMO_FLIGHT_CAPACITY=12\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORE_BACKEND")
		os.Unsetenv("BADGER_DIR")
		os.Unsetenv("DEMO_FLIGHT_CAPACITY")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, StoreBadger, cfg.Store.Backend)
	assert.Equal(t, "/tmp/ledger-test", cfg.Store.BadgerDir)
	assert.Equal(t, 12, cfg.Ledger.DemoFlightCapacity)
	assert.Equal(t, ledger.OverpaymentRefund, cfg.LedgerOptions().OverpaymentPolicy)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing admin", map[string]string{"ADMIN_ADDRESS": ""}, "ADMIN_ADDRESS is required"},
		{"bad admin", map[string]string{"ADMIN_ADDRESS": "not-an-address"}, "ADMIN_ADDRESS"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"bad policy", map[string]string{"OVERPAYMENT_POLICY": "donate"}, "OVERPAYMENT_POLICY"},
		{"bad backend", map[string]string{"STORE_BACKEND": "sqlite"}, "STORE_BACKEND"},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres"}, "DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{Server: ServerConfig{LogLevel: "debug"}}
	assert.Equal(t, "debug", cfg.NewLogger().GetLevel().String())

	cfg.Server.LogLevel = "loud"
	assert.Equal(t, "info", cfg.NewLogger().GetLevel().String())
}
