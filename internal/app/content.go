package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
)

type commentRequest struct {
	Body string `validate:"required,max=2000"`
}

// AddComment attaches an anonymous comment to an existing scenario.
func (s *Service) AddComment(ctx context.Context, scenarioID uuid.UUID, body string) (*domain.Comment, error) {
	req := commentRequest{Body: strings.TrimSpace(body)}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	if _, err := s.scenarios.GetByID(ctx, scenarioID); err != nil {
		return nil, err
	}

	comment, err := s.comments.Create(ctx, scenarioID, domain.DefaultAuthor, req.Body, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.contentMetrics.CommentsAdded.Inc()
	slog.InfoContext(ctx, "Comment added", "scenario_id", scenarioID, "comment_id", comment.ID)
	return comment, nil
}

type ContactRequest struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,email,max=254"`
	Phone   string `validate:"max=40"`
	Message string `validate:"required,max=5000"`
}

// SubmitContact stores a message from the contact form.
func (s *Service) SubmitContact(ctx context.Context, req ContactRequest) (*domain.ContactMessage, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	msg, err := s.contacts.Create(ctx, domain.ContactMessage{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Message:     req.Message,
		SubmittedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}

	s.contentMetrics.ContactMessages.Inc()
	slog.InfoContext(ctx, "Contact message received", "message_id", msg.ID)
	return msg, nil
}
