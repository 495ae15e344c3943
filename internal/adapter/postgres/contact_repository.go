package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/ifthen/internal/domain"
)

type ContactRepo struct {
	pool *pgxpool.Pool
}

func NewContactRepo(pool *pgxpool.Pool) *ContactRepo {
	return &ContactRepo{pool: pool}
}

func (r *ContactRepo) Create(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contact_messages (name, email, phone, message, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		msg.Name, msg.Email, msg.Phone, msg.Message, msg.SubmittedAt,
	).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact message: %w", err)
	}
	return &msg, nil
}
