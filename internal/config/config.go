package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DevSecret signs credentials when JWT_SECRET is unset outside production.
const DevSecret = "chatgate-development-secret"

// Store backends.
const (
	BackendBadger  = "badger"
	BackendSurreal = "surreal"
)

// ErrMissingSecret is returned when production runs without JWT_SECRET.
var ErrMissingSecret = errors.New("JWT_SECRET must be set when APP_ENV=production")

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`

	// AllowedOrigins is the comma separated origin allow-list. Empty allows all.
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`
	JWTSecret      string `envconfig:"JWT_SECRET"`

	HandshakeTimeout time.Duration `envconfig:"HANDSHAKE_TIMEOUT" default:"10s" validate:"gt=0"`
	SendBuffer       int           `envconfig:"SEND_BUFFER" default:"256" validate:"gt=0"`
	// ConnectRateLimit is the allowed connection attempts per second per IP. 0 disables it.
	ConnectRateLimit float64 `envconfig:"CONNECT_RATE_LIMIT" default:"0" validate:"gte=0"`
	HistoryLimit     int     `envconfig:"HISTORY_LIMIT" default:"50" validate:"gt=0"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"badger" validate:"oneof=badger surreal"`
	// BadgerPath is the badger data directory. Empty keeps the store in memory.
	BadgerPath string `envconfig:"BADGER_PATH"`

	DBUrl  string `envconfig:"SURREAL_URL" validate:"required_if=StoreBackend surreal"`
	DBNs   string `envconfig:"SURREAL_NS" default:"chatgate" validate:"required_if=StoreBackend surreal"`
	DBDb   string `envconfig:"SURREAL_DB" default:"chatgate" validate:"required_if=StoreBackend surreal"`
	DBUser string `envconfig:"SURREAL_USER"`
	DBPass string `envconfig:"SURREAL_PASS"`

	FixturesPath  string `envconfig:"FIXTURES_PATH"`
	FixturesWatch bool   `envconfig:"FIXTURES_WATCH" default:"false"`

	CatalogSearchTimeout   time.Duration `envconfig:"CATALOG_SEARCH_TIMEOUT" default:"2s" validate:"gt=0"`
	CatalogBreakerFailures uint32        `envconfig:"CATALOG_BREAKER_FAILURES" default:"5" validate:"gt=0"`
	CatalogBreakerCooldown time.Duration `envconfig:"CATALOG_BREAKER_COOLDOWN" default:"30s" validate:"gt=0"`

	AssistantMinDelay time.Duration `envconfig:"ASSISTANT_MIN_DELAY" default:"1s" validate:"gt=0"`
	AssistantMaxDelay time.Duration `envconfig:"ASSISTANT_MAX_DELAY" default:"2s" validate:"gtefield=AssistantMinDelay"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// Load reads the configuration from the environment, after loading a .env
// file if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and applies the signing secret policy.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return ErrMissingSecret
		}
		slog.Warn("JWT_SECRET is not set, using the development secret")
		c.JWTSecret = DevSecret
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
