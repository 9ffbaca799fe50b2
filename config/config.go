package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	NumberingPostgres = "postgres"
	NumberingRedis    = "redis"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	AppEnv         string        `envconfig:"APP_ENV" default:"development"`
	Port           string        `envconfig:"PORT" default:"8080"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"*"`
	BodyLimitBytes int           `envconfig:"BODY_LIMIT_BYTES" default:"4194304"`
	RateLimitMax   int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWin   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`

	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"invoicing"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBTimeZone  string `envconfig:"DB_TIMEZONE" default:"UTC"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	JWTSecret string `envconfig:"JWT_SECRET_KEY"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	NumberingBackend         string `envconfig:"NUMBERING_BACKEND" default:"postgres"`
	NumberingFallbackOnError bool   `envconfig:"NUMBERING_FALLBACK_ON_ERROR" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	PricingTrustClient bool          `envconfig:"PRICING_TRUST_CLIENT" default:"true"`
	CommitTimeout      time.Duration `envconfig:"COMMIT_TIMEOUT" default:"30s"`
	LowStockAlerts     bool          `envconfig:"LOW_STOCK_ALERTS" default:"false"`

	DefaultOrganizationName string `envconfig:"DEFAULT_ORGANIZATION_NAME" default:"My Organization"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	cfg.NumberingBackend = strings.ToLower(strings.TrimSpace(cfg.NumberingBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.NumberingBackend {
	case NumberingPostgres, NumberingRedis:
	default:
		return fmt.Errorf("NUMBERING_BACKEND must be %q or %q, got %q", NumberingPostgres, NumberingRedis, c.NumberingBackend)
	}
	if c.CommitTimeout <= 0 {
		return errors.New("COMMIT_TIMEOUT must be positive")
	}
	if c.BodyLimitBytes <= 0 {
		return errors.New("BODY_LIMIT_BYTES must be positive")
	}
	if c.IsProduction() && strings.TrimSpace(c.AllowedOrigins) == "*" {
		return errors.New("ALLOWED_ORIGINS must list explicit origins when APP_ENV=production")
	}
	return nil
}

// RequireJWTSecret fails when no signing secret is configured.
func (c *Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the
// DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone)
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
