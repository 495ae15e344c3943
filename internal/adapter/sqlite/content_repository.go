package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/pscheid92/ifthen/internal/domain"
)

type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, scenarioID uuid.UUID, author, body string, createdAt time.Time) (*domain.Comment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (scenario_id, author, body, created_at) VALUES (?, ?, ?, ?)`,
		scenarioID.String(), author, body, createdAt.UTC(),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return nil, domain.ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read comment id: %w", err)
	}
	return &domain.Comment{ID: id, ScenarioID: scenarioID, Author: author, Body: body, CreatedAt: createdAt.UTC()}, nil
}

func (r *CommentRepo) ListByScenario(ctx context.Context, scenarioID uuid.UUID) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scenario_id, author, body, created_at
		FROM comments
		WHERE scenario_id = ?
		ORDER BY created_at DESC, id DESC`,
		scenarioID.String(),
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

type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) Create(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_messages (name, email, phone, message, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		msg.Name, msg.Email, msg.Phone, msg.Message, msg.SubmittedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact message: %w", err)
	}
	if msg.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read contact message id: %w", err)
	}
	return &msg, nil
}

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

func (r *TagRepo) EnsureTags(ctx context.Context, tags []domain.Tag) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	inserted := 0
	for _, t := range tags {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name, color) VALUES (?, ?)`, t.Name, t.Color)
		if err != nil {
			return 0, fmt.Errorf("failed to insert tag: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}
