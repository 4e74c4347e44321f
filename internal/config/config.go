package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds everything the process needs to start.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Weather  WeatherConfig
	Log      LogConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver string // "sqlite", "postgres" or "memory"
	DSN    string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	RateLimit int
	RateBurst int
}

type RabbitMQConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

type CheckoutConfig struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	RevalidatePrices      bool
}

type WeatherConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// IsDevelopment reports whether the app runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "test"
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "krishak.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "720h")
	v.SetDefault("AUTH_RATE_LIMIT", 5)
	v.SetDefault("AUTH_RATE_BURST", 10)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CART_TTL", "168h")
	v.SetDefault("FREE_SHIPPING_THRESHOLD", "500")
	v.SetDefault("FLAT_SHIPPING_FEE", "40")
	v.SetDefault("CHECKOUT_REVALIDATE_PRICES", false)
	v.SetDefault("WEATHER_API_KEY", "")
	v.SetDefault("WEATHER_BASE_URL", "https://api.openweathermap.org")
	v.SetDefault("WEATHER_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads an optional .env file, then the environment, and builds a Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	threshold, err := decimal.NewFromString(v.GetString("FREE_SHIPPING_THRESHOLD"))
	if err != nil {
		return nil, fmt.Errorf("invalid FREE_SHIPPING_THRESHOLD: %w", err)
	}
	fee, err := decimal.NewFromString(v.GetString("FLAT_SHIPPING_FEE"))
	if err != nil {
		return nil, fmt.Errorf("invalid FLAT_SHIPPING_FEE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port: v.GetString("APP_PORT"),
			Env:  strings.ToLower(v.GetString("APP_ENV")),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			TokenTTL:  v.GetDuration("JWT_TTL"),
			RateLimit: v.GetInt("AUTH_RATE_LIMIT"),
			RateBurst: v.GetInt("AUTH_RATE_BURST"),
		},
		RabbitMQ: RabbitMQConfig{URL: v.GetString("RABBITMQ_URL")},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CartTTL:  v.GetDuration("CART_TTL"),
		},
		Checkout: CheckoutConfig{
			FreeShippingThreshold: threshold,
			FlatShippingFee:       fee,
			RevalidatePrices:      v.GetBool("CHECKOUT_REVALIDATE_PRICES"),
		},
		Weather: WeatherConfig{
			APIKey:  v.GetString("WEATHER_API_KEY"),
			BaseURL: strings.TrimRight(v.GetString("WEATHER_BASE_URL"), "/"),
			Timeout: v.GetDuration("WEATHER_TIMEOUT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}
	if cfg.Auth.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", cfg.App.Env)
		}
		cfg.Auth.JWTSecret = "dev-only-secret"
	}

	return cfg, nil
}
