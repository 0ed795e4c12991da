// internal/config/config.go
//
// Server configuration, read from the environment (after godotenv has
// loaded any .env file). See Config for variables and defaults.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/robalobadob/recycle-sort/internal/catalog"
)

// Config holds every tunable of the server.
type Config struct {
	Port         string `env:"PORT" envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty    bool   `env:"LOG_PRETTY"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	CookieSecure bool   `env:"COOKIE_SECURE"`

	CatalogURL     string        `env:"CATALOG_URL"`
	CatalogFile    string        `env:"CATALOG_FILE"`
	CatalogDB      string        `env:"CATALOG_DB"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`

	RoundSize   int           `env:"ROUND_SIZE" envDefault:"10"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"0"` // 0 → size of each round
	RoundTTL    time.Duration `env:"ROUND_TTL" envDefault:"2h"`
	RoundSecret string        `env:"ROUND_SECRET" envDefault:"dev_secret_change_me"`
	DailySalt   string        `env:"DAILY_SALT" envDefault:"local_dev_salt"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the game cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.RoundSize < 1 {
		errs = append(errs, fmt.Errorf("ROUND_SIZE must be at least 1, got %d", c.RoundSize))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("MAX_ATTEMPTS must not be negative, got %d", c.MaxAttempts))
	}
	if c.RoundTTL <= 0 {
		errs = append(errs, fmt.Errorf("ROUND_TTL must be positive, got %s", c.RoundTTL))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// CatalogSource returns the catalog source options.
func (c Config) CatalogSource() catalog.SourceOptions {
	return catalog.SourceOptions{
		URL:     c.CatalogURL,
		DB:      c.CatalogDB,
		File:    c.CatalogFile,
		Timeout: c.CatalogTimeout,
	}
}
