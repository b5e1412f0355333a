package config

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://delxta@localhost/delxta?sslmode=disable")
	t.Setenv("DELIVERY_FEE", "2000")
	t.Setenv("CHECKOUT_SESSION_TTL", "30m")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg, err := LoadConfig(logger)
	require.NoError(t, err)

	assert.Equal(t, int64(2000), cfg.DeliveryFee)
	assert.Equal(t, "30m0s", cfg.CheckoutSessionTTL.String())
	assert.Equal(t, ":8082", cfg.HTTPPort)
	assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	assert.Equal(t, "delxta", cfg.PaymentReferencePrefix)
	assert.True(t, cfg.OrderNotificationsEnabled)

	again, err := LoadConfig(logger)
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestValidate(t *testing.T) {
	valid := func() Config { return Config{DeliveryFee: 1500, CheckoutSessionTTL: 2 * time.Hour} }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero delivery fee", func(c *Config) { c.DeliveryFee = 0 }, "DELIVERY_FEE"},
		{"negative delivery fee", func(c *Config) { c.DeliveryFee = -1500 }, "DELIVERY_FEE"},
		{"zero session ttl", func(c *Config) { c.CheckoutSessionTTL = 0 }, "CHECKOUT_SESSION_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("debug", logger))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("chatty", logger))
}
