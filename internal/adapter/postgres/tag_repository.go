package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/ifthen/internal/domain"
)

type TagRepo struct {
	pool *pgxpool.Pool
}

func NewTagRepo(pool *pgxpool.Pool) *TagRepo {
	return &TagRepo{pool: pool}
}

func (r *TagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Tag])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tags: %w", err)
	}
	return tags, nil
}

func (r *TagRepo) EnsureTags(ctx context.Context, tags []domain.Tag) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, t := range tags {
		batch.Queue(`INSERT INTO tags (name, color) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, t.Name, t.Color)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range tags {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert tag: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
