package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable, e.g. PLANNER_HTTP_PORT.
const Prefix = "PLANNER"

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL       string        `envconfig:"DATABASE_URL" default:"planner.db"`
	HTTPPort          int           `envconfig:"HTTP_PORT" default:"8080"`
	TelegramToken     string        `envconfig:"TELEGRAM_TOKEN"`
	Timezone          string        `envconfig:"TIMEZONE" default:"Local"`
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"1h"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from PLANNER_ environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process environment variables: %w", err)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return cfg, fmt.Errorf("invalid HTTP_PORT %d", cfg.HTTPPort)
	}
	if cfg.ReconcileInterval < 0 {
		return cfg, fmt.Errorf("RECONCILE_INTERVAL must not be negative")
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves Timezone. "Local" and empty mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RequireTelegram fails when no bot token is configured.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("%s_TELEGRAM_TOKEN is required", Prefix)
	}
	return nil
}

// HTTPAddr returns the HTTP listen address.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
