package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// InternalAPIKey enables the internal crash routes used by the live
	// crash layer. Without it crash plays need an auto cash-out.
	InternalAPIKey string `env:"INTERNAL_API_KEY"`

	BetRateLimit    int           `env:"BET_RATE_LIMIT" envDefault:"30"`
	RevealRateLimit int           `env:"REVEAL_RATE_LIMIT" envDefault:"120"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	StaleRoundMaxAge time.Duration `env:"STALE_ROUND_MAX_AGE" envDefault:"10m"`
	CleanupInterval  time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`

	// StartingBalance is credited to a wallet the first time it is read.
	StartingBalance float64 `env:"STARTING_BALANCE" envDefault:"100"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BetRateLimit <= 0 || c.RevealRateLimit <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.RateLimitWindow <= 0 || c.CleanupInterval <= 0 || c.StaleRoundMaxAge <= 0 {
		return errors.New("durations must be positive")
	}
	if c.StartingBalance < 0 {
		return errors.New("starting balance must not be negative")
	}
	return nil
}

// ManualCrashEnabled reports whether manual crash rounds can be resolved.
func (c *Config) ManualCrashEnabled() bool {
	return c.InternalAPIKey != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
