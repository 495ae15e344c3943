package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/ifthen/internal/domain"
)

// foreignKeyViolation is the SQLSTATE raised when the referenced scenario is missing.
const foreignKeyViolation = "23503"

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Create(ctx context.Context, scenarioID uuid.UUID, author, body string, createdAt time.Time) (*domain.Comment, error) {
	c := domain.Comment{ScenarioID: scenarioID, Author: author, Body: body}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (scenario_id, author, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		scenarioID, author, body, createdAt,
	).Scan(&c.ID, &c.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return nil, domain.ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepo) ListByScenario(ctx context.Context, scenarioID uuid.UUID) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, scenario_id, author, body, created_at
		FROM comments
		WHERE scenario_id = $1
		ORDER BY created_at DESC, id DESC`,
		scenarioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ScenarioID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}
