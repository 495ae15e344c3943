package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID         int64
	ScenarioID uuid.UUID
	Author     string
	Body       string
	CreatedAt  time.Time
}

type CommentRepository interface {
	Create(ctx context.Context, scenarioID uuid.UUID, author, body string, createdAt time.Time) (*Comment, error)
	// ListByScenario returns a scenario's comments, newest first.
	ListByScenario(ctx context.Context, scenarioID uuid.UUID) ([]Comment, error)
}
