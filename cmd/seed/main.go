package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/adapter/redis"
	"github.com/pscheid92/ifthen/internal/adapter/storage"
	"github.com/pscheid92/ifthen/internal/app"
	"github.com/pscheid92/ifthen/internal/platform/config"
	"github.com/pscheid92/ifthen/internal/platform/logging"
	"github.com/pscheid92/ifthen/internal/seed"
)

const seedTimeout = 2 * time.Minute

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	var (
		driver      = flag.String("driver", envOr("STORAGE_DRIVER", config.StorageDriverPostgres), "Storage driver: postgres or sqlite (or set STORAGE_DRIVER env)")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		sqlitePath  = flag.String("sqlite-path", envOr("SQLITE_PATH", "data/scenarios.db"), "SQLite file (or set SQLITE_PATH env)")
		redisURL    = flag.String("redis", os.Getenv("REDIS_URL"), "Redis URL to invalidate cached tag colors (optional)")
		file        = flag.String("file", "", "YAML seed file (defaults to the built-in sample scenarios)")
		force       = flag.Bool("force", false, "Seed even if scenarios already exist")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	data, err := loadSeedFile(*file)
	if err != nil {
		log.Fatalf("Failed to load seed data: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	repos, err := storage.Open(ctx, &config.Config{
		StorageDriver: *driver,
		DatabaseURL:   *databaseURL,
		SQLitePath:    *sqlitePath,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer repos.Close()

	seeder := seed.NewSeeder(repos.Scenarios, repos.Comments, repos.Tags, app.RandomTagColor)
	res, err := seeder.Run(ctx, data, *force)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	if res.Skipped || res.Tags == 0 || *redisURL == "" {
		return
	}

	client, err := redis.NewClient(ctx, *redisURL)
	if err != nil {
		slog.Warn("Seeded, but could not reach Redis to drop cached tag colors", "error", err)
		return
	}
	defer func() { _ = client.Close() }()

	cache := redis.NewTagCache(client, repos.Tags, 0, clockwork.NewRealClock(), metrics.NewCacheMetrics(metrics.NewRegistry()))
	if err := cache.InvalidateTags(ctx); err != nil {
		slog.Warn("Seeded, but tag cache invalidation failed", "error", err)
	}
}

func loadSeedFile(path string) (*seed.File, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.Parse(data)
}
