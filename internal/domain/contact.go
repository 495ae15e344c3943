package domain

import (
	"context"
	"time"
)

type ContactMessage struct {
	ID          int64
	Name        string
	Email       string
	Phone       string
	Message     string
	SubmittedAt time.Time
}

type ContactRepository interface {
	Create(ctx context.Context, msg ContactMessage) (*ContactMessage, error)
}
