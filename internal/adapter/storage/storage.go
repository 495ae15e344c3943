// Package storage opens the configured repository backend.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/adapter/postgres"
	"github.com/pscheid92/ifthen/internal/adapter/sqlite"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/platform/config"
	"github.com/pscheid92/ifthen/internal/platform/retry"
)

// Repositories bundles the durable stores of one backend.
type Repositories struct {
	Driver      string
	Scenarios   domain.ScenarioRepository
	Comments    domain.CommentRepository
	Contacts    domain.ContactRepository
	Tags        domain.TagRepository
	HealthCheck func(ctx context.Context) error

	close func()
}

// Close releases the underlying pool or file handle.
func (r *Repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

// Open connects to the backend selected by cfg.StorageDriver and brings the
// schema up to date.
// dbMetrics may be nil.
func Open(ctx context.Context, cfg *config.Config, dbMetrics *metrics.DBMetrics) (*Repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		var tracer pgx.QueryTracer
		if dbMetrics != nil {
			tracer = postgres.NewMetricsTracer(dbMetrics, clockwork.NewRealClock())
		}
		return openPostgres(ctx, cfg.DatabaseURL, tracer)
	case config.StorageDriverSQLite:
		return openSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openPostgres(ctx context.Context, databaseURL string, tracer pgx.QueryTracer) (*Repositories, error) {
	policy := retry.Startup
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.WarnContext(ctx, "Database not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	}

	pool, err := retry.Do(ctx, policy, retry.Transient, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, databaseURL, tracer)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Repositories{
		Driver:      config.StorageDriverPostgres,
		Scenarios:   postgres.NewScenarioRepo(pool),
		Comments:    postgres.NewCommentRepo(pool),
		Contacts:    postgres.NewContactRepo(pool),
		Tags:        postgres.NewTagRepo(pool),
		HealthCheck: postgres.HealthCheck(pool),
		close:       pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, path string) (*Repositories, error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return sqliteRepositories(db), nil
}

func sqliteRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Driver:      config.StorageDriverSQLite,
		Scenarios:   sqlite.NewScenarioRepo(db),
		Comments:    sqlite.NewCommentRepo(db),
		Contacts:    sqlite.NewContactRepo(db),
		Tags:        sqlite.NewTagRepo(db),
		HealthCheck: sqlite.HealthCheck(db),
		close: func() {
			if err := db.Close(); err != nil {
				slog.Error("Failed to close sqlite database", "error", err)
			}
		},
	}
}
