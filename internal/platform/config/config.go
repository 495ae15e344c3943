package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"

	minProductionSecretLen = 32
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	StorageDriver string `env:"STORAGE_DRIVER" default:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" default:"data/scenarios.db"`
	RedisURL      string `env:"REDIS_URL"`
	SessionSecret string `env:"SESSION_SECRET"`
	UploadDir     string `env:"UPLOAD_DIR" default:"uploads"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" default:"5242880"` // 5 MiB

	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
	TagCacheTTL   time.Duration `env:"TAG_CACHE_TTL" default:"5m"`
	VoteDebounce  time.Duration `env:"VOTE_DEBOUNCE" default:"300ms"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)

	required := map[string]string{
		"SESSION_SECRET": cfg.SessionSecret,
	}
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		required["DATABASE_URL"] = cfg.DatabaseURL
	case StorageDriverSQLite:
		required["SQLITE_PATH"] = cfg.SQLitePath
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverSQLite, cfg.StorageDriver)
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.SessionMaxAge <= 0 {
		return errors.New("SESSION_MAX_AGE must be positive")
	}
	if cfg.VoteDebounce < 0 {
		return errors.New("VOTE_DEBOUNCE must not be negative")
	}

	if !cfg.IsProduction() {
		return nil
	}

	if len(cfg.SessionSecret) < minProductionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minProductionSecretLen)
	}
	if cfg.StorageDriver == StorageDriverPostgres {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}
	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
