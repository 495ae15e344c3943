package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
)

const scenarioColumns = `id, title, description, author, tags, upvotes, downvotes, image_url, status, created_at`

type ScenarioRepo struct {
	db *sql.DB
}

func NewScenarioRepo(db *sql.DB) *ScenarioRepo {
	return &ScenarioRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (*domain.Scenario, error) {
	var (
		s              domain.Scenario
		tagsJSON, stat string
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Author, &tagsJSON, &s.Upvotes, &s.Downvotes, &s.ImageURL, &stat, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &s.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of scenario %s: %w", s.ID, err)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	s.Status = domain.ParseScenarioStatus(stat)
	return &s, nil
}

func (r *ScenarioRepo) Create(ctx context.Context, ns domain.NewScenario) (*domain.Scenario, error) {
	tags := ns.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	id := uuid.New()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scenarios (`+scenarioColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), ns.Title, ns.Description, ns.Author, string(tagsJSON), ns.Upvotes, ns.Downvotes, ns.ImageURL, string(ns.Status), ns.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scenario: %w", err)
	}

	return &domain.Scenario{
		ID:          id,
		Title:       ns.Title,
		Description: ns.Description,
		Author:      ns.Author,
		Tags:        tags,
		Upvotes:     ns.Upvotes,
		Downvotes:   ns.Downvotes,
		ImageURL:    ns.ImageURL,
		Status:      ns.Status,
		CreatedAt:   ns.CreatedAt.UTC(),
	}, nil
}

func (r *ScenarioRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, id.String())
	s, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return s, nil
}

func (r *ScenarioRepo) List(ctx context.Context) ([]domain.Scenario, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios ORDER BY created_at DESC, id`)
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

func (r *ScenarioRepo) AdjustVotes(ctx context.Context, id uuid.UUID, delta domain.VoteDelta) (domain.VoteCounts, error) {
	var counts domain.VoteCounts
	err := r.db.QueryRowContext(ctx, `
		UPDATE scenarios
		SET upvotes = MAX(upvotes + ?, 0),
		    downvotes = MAX(downvotes + ?, 0)
		WHERE id = ?
		RETURNING upvotes, downvotes`,
		delta.Up, delta.Down, id.String(),
	).Scan(&counts.Upvotes, &counts.Downvotes)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.VoteCounts{}, domain.ErrScenarioNotFound
	}
	if err != nil {
		return domain.VoteCounts{}, fmt.Errorf("failed to adjust votes: %w", err)
	}
	return counts, nil
}
