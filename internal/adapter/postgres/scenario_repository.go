package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/ifthen/internal/domain"
)

const scenarioColumns = `id, title, description, author, tags, upvotes, downvotes, image_url, status, created_at`

type ScenarioRepo struct {
	pool *pgxpool.Pool
}

func NewScenarioRepo(pool *pgxpool.Pool) *ScenarioRepo {
	return &ScenarioRepo{pool: pool}
}

func scanScenario(row pgx.Row) (*domain.Scenario, error) {
	var (
		s      domain.Scenario
		status string
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Author, &s.Tags, &s.Upvotes, &s.Downvotes, &s.ImageURL, &status, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Status = domain.ParseScenarioStatus(status)
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return &s, nil
}

func (r *ScenarioRepo) Create(ctx context.Context, ns domain.NewScenario) (*domain.Scenario, error) {
	tags := ns.Tags
	if tags == nil {
		tags = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO scenarios (`+scenarioColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+scenarioColumns,
		uuid.New(), ns.Title, ns.Description, ns.Author, tags, ns.Upvotes, ns.Downvotes, ns.ImageURL, string(ns.Status), ns.CreatedAt,
	)
	s, err := scanScenario(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scenario: %w", err)
	}
	return s, nil
}

func (r *ScenarioRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = $1`, id)
	s, err := scanScenario(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return s, nil
}

func (r *ScenarioRepo) List(ctx context.Context) ([]domain.Scenario, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+scenarioColumns+` FROM scenarios ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := []domain.Scenario{}
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}
	return scenarios, nil
}

// AdjustVotes applies the delta in a single UPDATE so concurrent votes on the
// same row never lose increments. Counters are clamped at zero.
func (r *ScenarioRepo) AdjustVotes(ctx context.Context, id uuid.UUID, delta domain.VoteDelta) (domain.VoteCounts, error) {
	var counts domain.VoteCounts
	err := r.pool.QueryRow(ctx, `
		UPDATE scenarios
		SET upvotes = GREATEST(upvotes + $2, 0),
		    downvotes = GREATEST(downvotes + $3, 0)
		WHERE id = $1
		RETURNING upvotes, downvotes`,
		id, delta.Up, delta.Down,
	).Scan(&counts.Upvotes, &counts.Downvotes)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.VoteCounts{}, domain.ErrScenarioNotFound
	}
	if err != nil {
		return domain.VoteCounts{}, fmt.Errorf("failed to adjust votes: %w", err)
	}
	return counts, nil
}
