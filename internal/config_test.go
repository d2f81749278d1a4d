package internal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newViper())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, uint16(3000), cfg.Port)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, "0.1", cfg.Pricing.TaxRate.String())
	assert.Equal(t, int64(5000), cfg.Pricing.FreeShippingThresholdCents)
	assert.Equal(t, int64(1000), cfg.Pricing.FlatShippingCents)
	assert.False(t, cfg.Cart.StrictStock)
	assert.Equal(t, 720*time.Hour, cfg.Cart.GuestCartTTL)
	assert.Equal(t, time.Hour, cfg.Cart.SweepInterval)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	v := newViper()
	v.Set("PORT", "8080")
	v.Set("TAX_RATE", "0.0825")
	v.Set("STRICT_STOCK", "true")
	v.Set("GUEST_CART_TTL", "48h")
	v.Set("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://www.example.com")
	v.Set("LOG_LEVEL", "verbose")
	v.Set("ENV", "staging")
	v.Set("SESSION_SECRET", "s")
	v.Set("JWT_SECRET", "j")

	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, "0.0825", cfg.Pricing.TaxRate.String())
	assert.True(t, cfg.Cart.StrictStock)
	assert.Equal(t, 48*time.Hour, cfg.Cart.GuestCartTTL)
	assert.Equal(t, []string{"https://shop.example.com", "https://www.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "info", cfg.LogLevel, "invalid level falls back to info")
	assert.Equal(t, "prod", cfg.Env, "unknown env falls back to prod")
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]any
		wantErr string
	}{
		{
			name:    "default session secret in prod",
			set:     map[string]any{"ENV": "prod", "JWT_SECRET": "j"},
			wantErr: "SESSION_SECRET",
		},
		{
			name:    "default jwt secret in prod",
			set:     map[string]any{"ENV": "prod", "SESSION_SECRET": "s"},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "memory store in prod",
			set:     map[string]any{"ENV": "prod", "SESSION_SECRET": "s", "JWT_SECRET": "j", "STORE": "memory"},
			wantErr: "STORE=memory",
		},
		{
			name:    "unknown store",
			set:     map[string]any{"STORE": "sqlite"},
			wantErr: "STORE must be",
		},
		{
			name:    "malformed tax rate",
			set:     map[string]any{"TAX_RATE": "ten percent"},
			wantErr: "TAX_RATE",
		},
		{
			name:    "negative tax rate",
			set:     map[string]any{"TAX_RATE": "-0.1"},
			wantErr: "TAX_RATE",
		},
		{
			name:    "zero sweep interval",
			set:     map[string]any{"SWEEP_INTERVAL": "0s"},
			wantErr: "SWEEP_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := loadConfig(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("prod writes json at the given level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "prod", "warn")

		logger.Info().Msg("dropped")
		logger.Warn().Str("cart_id", "c1").Msg("kept")

		out := buf.String()
		assert.NotContains(t, out, "dropped")
		assert.Contains(t, out, `"cart_id":"c1"`)
		assert.Contains(t, out, `"level":"warn"`)
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{}, "prod", "loud")
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("dev writes console output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "dev", "debug")
		logger.Debug().Msg("hello")
		assert.True(t, strings.Contains(buf.String(), "hello"))
		assert.False(t, strings.HasPrefix(buf.String(), "{"))
	})
}
