package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration. Values come from the
// environment (optionally via a .env file); CLI flags may override a
// subset afterwards through Options.
type Config struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"5000" validate:"min=1,max=65535"`

	// AllowedOrigins restricts websocket upgrades to the listed Origin
	// headers. Empty means allow all (development).
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MaxMessageLength int           `envconfig:"MAX_MESSAGE_LENGTH" default:"2000" validate:"min=1"`
	DedupWindow      time.Duration `envconfig:"DEDUP_WINDOW" default:"2s"`
	TypingExpiry     time.Duration `envconfig:"TYPING_EXPIRY" default:"6s"`
}

// Options are CLI flag overrides. Zero values mean "not set".
type Options struct {
	Port     int
	Origin   []string
	LogLevel string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables (a .env file is read if present)
// 3. Struct defaults - lowest priority
func Load(opts Options) (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if len(opts.Origin) != 0 {
		cfg.AllowedOrigins = opts.Origin
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
