package config_test

import (
	"testing"
	"time"

	"krishak/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "500", cfg.Checkout.FreeShippingThreshold.String())
	assert.Equal(t, "40", cfg.Checkout.FlatShippingFee.String())
	assert.False(t, cfg.Checkout.RevalidatePrices)
	assert.NotEmpty(t, cfg.Auth.JWTSecret, "development falls back to a local secret")
}

func TestFromViper_ProductionRequiresSecret(t *testing.T) {
	_, err := config.FromViper(newViper(map[string]interface{}{"APP_ENV": "production"}))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg, err := config.FromViper(newViper(map[string]interface{}{
		"APP_ENV":    "production",
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestFromViper_RejectsBadValues(t *testing.T) {
	_, err := config.FromViper(newViper(map[string]interface{}{"DATABASE_DRIVER": "mysql"}))
	assert.Error(t, err)

	_, err = config.FromViper(newViper(map[string]interface{}{"FLAT_SHIPPING_FEE": "forty"}))
	assert.Error(t, err)
}
