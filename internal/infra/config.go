package infra

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	JournalDriverPostgres = "postgres"
	JournalDriverMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string `env:"APP_ENV" envDefault:"development"`
	Port          string `env:"PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	JournalDriver string `env:"JOURNAL_DRIVER" envDefault:"postgres"`

	JWTSecret    string `env:"JWT_SECRET"`
	JWTIssuer    string `env:"JWT_ISSUER" envDefault:"fundraiser"`
	OwnerSubject string `env:"OWNER_SUBJECT"`

	RegistryName             string `env:"REGISTRY_NAME" envDefault:"default"`
	MaxActiveCampaigns       int    `env:"MAX_ACTIVE_CAMPAIGNS" envDefault:"1000"`
	MaxSelectLimit           int    `env:"MAX_SELECT_LIMIT" envDefault:"100"`
	DonationUpdatesLimit     int    `env:"DONATION_UPDATES_LIMIT" envDefault:"255"`
	EnforceUniqueCampaignIDs bool   `env:"ENFORCE_UNIQUE_CAMPAIGN_IDS" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisStream   string `env:"REDIS_STREAM" envDefault:"fundraiser.events"`
	RedisGroup    string `env:"REDIS_GROUP" envDefault:"fundraiser-worker"`

	GeoIPDBPath        string   `env:"GEOIP_DB_PATH"`
	DefaultLocale      string   `env:"DEFAULT_LOCALE" envDefault:"en"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	RateLimitPerMin  int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.JournalDriver = strings.ToLower(strings.TrimSpace(cfg.JournalDriver))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.JournalDriver {
	case JournalDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres journal"))
		}
	case JournalDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("JOURNAL_DRIVER %q is not supported", c.JournalDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.OwnerSubject == "" {
		errs = append(errs, errors.New("OWNER_SUBJECT is required"))
	}
	if c.MaxActiveCampaigns <= 0 {
		errs = append(errs, fmt.Errorf("MAX_ACTIVE_CAMPAIGNS must be positive, got %d", c.MaxActiveCampaigns))
	}
	if c.MaxSelectLimit <= 0 {
		errs = append(errs, fmt.Errorf("MAX_SELECT_LIMIT must be positive, got %d", c.MaxSelectLimit))
	}
	if c.DonationUpdatesLimit <= 0 || c.DonationUpdatesLimit > math.MaxUint8 {
		errs = append(errs, fmt.Errorf("DONATION_UPDATES_LIMIT must be in [1, %d], got %d", math.MaxUint8, c.DonationUpdatesLimit))
	}
	if c.RateLimitPerMin <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMin))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }
