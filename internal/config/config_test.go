package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 50060, cfg.GRPCPort)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 12, cfg.ItemsPerPage)
	assert.Equal(t, "CNY", cfg.Currency)
	assert.True(t, cfg.Pricing.ShippingThreshold.Equal(decimal.NewFromInt(99)))
	assert.True(t, cfg.Pricing.ShippingFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.08")))
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "REMOTE")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("TAX_RATE", "0.13")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.True(t, cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.13")))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: 7070\nshipping_threshold: \"150\"\ncurrency: USD\n"), 0o644))
	t.Setenv("CURRENCY", "EUR")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.HTTPPort)
	assert.True(t, cfg.Pricing.ShippingThreshold.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "EUR", cfg.Currency, "environment wins over the file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "BACKEND", "cloud"},
		{"port out of range", "HTTP_PORT", "70000"},
		{"zero timeout", "REQUEST_TIMEOUT", "0s"},
		{"negative tax", "TAX_RATE", "-0.1"},
		{"tax not a number", "TAX_RATE", "eight percent"},
		{"no page size", "ITEMS_PER_PAGE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_RemoteNeedsBrokers(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Backend = BackendRemote
	cfg.KafkaBrokers = nil
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
