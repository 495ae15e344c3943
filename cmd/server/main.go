package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/ifthen/internal/adapter/httpserver"
	"github.com/pscheid92/ifthen/internal/adapter/memory"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/adapter/redis"
	"github.com/pscheid92/ifthen/internal/adapter/storage"
	"github.com/pscheid92/ifthen/internal/adapter/uploads"
	"github.com/pscheid92/ifthen/internal/app"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/platform/config"
	"github.com/pscheid92/ifthen/internal/platform/logging"
	"github.com/pscheid92/ifthen/internal/platform/version"
)

const (
	startupTimeout       = 30 * time.Second
	shutdownTimeout      = 10 * time.Second
	memoryEvictionPeriod = time.Minute
)

// ephemeral is the per-viewer state and tag cache, backed by Redis when
// configured and by process memory otherwise.
type ephemeral struct {
	votes        domain.ViewerVoteStore
	debouncer    domain.VoteDebouncer
	tagColors    domain.TagSource
	invalidator  domain.TagCacheInvalidator
	healthChecks []httpserver.HealthCheck
	stop         []func()
}

func runGracefulShutdown(srv *httpserver.Server, cleanup func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cleanup()
		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStorage(cfg *config.Config, dbMetrics *metrics.DBMetrics) *storage.Repositories {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	repos, err := storage.Open(ctx, cfg, dbMetrics)
	if err != nil {
		slog.Error("Failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	return repos
}

func setupRedisEphemeral(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, tags domain.TagRepository, clock clockwork.Clock) *ephemeral {
	redisMetrics := metrics.NewRedisMetrics(reg)
	cacheMetrics := metrics.NewCacheMetrics(reg)

	connectCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	client, err := redis.NewClient(connectCtx, cfg.RedisURL,
		redis.NewMetricsHook(redisMetrics, clock),
		redis.NewCircuitBreakerHook(redisMetrics, clock),
	)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	tagCache := redis.NewTagCache(client, tags, cfg.TagCacheTTL, clock, cacheMetrics)
	stopEviction := tagCache.StartEvictionTimer()

	subCtx, cancelSub := context.WithCancel(ctx)
	if err := redis.NewTagInvalidationSubscriber(client, tagCache).Start(subCtx); err != nil {
		// Other instances' tag changes show up once the memory TTL expires.
		slog.Warn("Tag invalidation subscriber not started", "error", err)
	}

	return &ephemeral{
		votes:       redis.NewViewerVoteStore(client, cfg.SessionMaxAge),
		debouncer:   redis.NewDebouncer(client, cfg.VoteDebounce),
		tagColors:   tagCache,
		invalidator: tagCache,
		healthChecks: []httpserver.HealthCheck{
			{Name: "redis", Check: redis.HealthCheck(client), Optional: true},
		},
		stop: []func(){
			cancelSub,
			stopEviction,
			func() { _ = client.Close() },
		},
	}
}

func setupMemoryEphemeral(cfg *config.Config, reg prometheus.Registerer, tags domain.TagRepository, clock clockwork.Clock) *ephemeral {
	slog.Info("REDIS_URL not set, keeping viewer state in memory")

	votes := memory.NewViewerVoteStore(cfg.SessionMaxAge, clock)
	tagCache := memory.NewTagCache(tags, cfg.TagCacheTTL, clock, metrics.NewCacheMetrics(reg))

	return &ephemeral{
		votes:       votes,
		debouncer:   memory.NewDebouncer(cfg.VoteDebounce, clock),
		tagColors:   tagCache,
		invalidator: tagCache,
		stop:        []func(){votes.StartEvictionTimer(memoryEvictionPeriod)},
	}
}

func setupUploads(cfg *config.Config, clock clockwork.Clock) *uploads.DiskStore {
	store, err := uploads.NewDiskStore(cfg.UploadDir, cfg.MaxUploadBytes, clock)
	if err != nil {
		slog.Error("Failed to prepare upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}
	return store
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	v := version.Get()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", v.Version, "commit", v.Commit, "storage", cfg.StorageDriver)

	reg := metrics.NewRegistry()

	repos := setupStorage(cfg, metrics.NewDBMetrics(reg))
	defer repos.Close()

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	var eph *ephemeral
	if cfg.RedisURL != "" {
		eph = setupRedisEphemeral(rootCtx, cfg, reg, repos.Tags, clock)
	} else {
		eph = setupMemoryEphemeral(cfg, reg, repos.Tags, clock)
	}

	images := setupUploads(cfg, clock)

	appSvc := app.NewService(app.Deps{
		Scenarios:      repos.Scenarios,
		Comments:       repos.Comments,
		Contacts:       repos.Contacts,
		Tags:           repos.Tags,
		TagColors:      eph.tagColors,
		TagInvalidator: eph.invalidator,
		Votes:          eph.votes,
		Debouncer:      eph.debouncer,
		Images:         images,
		Clock:          clock,
		VoteMetrics:    metrics.NewVoteMetrics(reg),
		ContentMetrics: metrics.NewContentMetrics(reg),
	})

	healthChecks := append([]httpserver.HealthCheck{
		{Name: repos.Driver, Check: repos.HealthCheck},
		{Name: "uploads", Check: images.HealthCheck},
	}, eph.healthChecks...)

	srv, err := httpserver.NewServer(cfg, appSvc, healthChecks, metrics.NewHTTPMetrics(reg), metrics.Handler(reg))
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, func() {
		cancelRoot()
		for _, stop := range eph.stop {
			stop()
		}
	})

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
