package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/filter"
	apperrors "github.com/pscheid92/ifthen/internal/platform/errors"
)

// ImageUpload is an optional image attached to a submission.
type ImageUpload struct {
	Name   string
	Reader io.Reader
}

type SubmitScenarioRequest struct {
	Title       string   `validate:"required,max=200"`
	Description string   `validate:"required,max=5000"`
	Tags        []string `validate:"max=10,dive,max=40"`
	Image       *ImageUpload
}

// ScenarioList is a set of scenarios with the colors needed to render their tags.
type ScenarioList struct {
	Scenarios []domain.Scenario
	TagColors domain.TagColors
}

// BrowseResult is a tag-filtered listing.
type BrowseResult struct {
	filter.Result
	Selected      []string
	AvailableTags []string
	TagColors     domain.TagColors
}

type SearchResult struct {
	filter.SearchResult
	TagColors domain.TagColors
}

type Discussion struct {
	Scenario  *domain.Scenario
	Comments  []domain.Comment
	TagColors domain.TagColors
}

// SubmitScenario validates and stores a new scenario. Every scenario starts
// anonymous, active and without votes.
func (s *Service) SubmitScenario(ctx context.Context, req SubmitScenarioRequest) (*domain.Scenario, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Tags = filter.NormalizeTags(req.Tags)

	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	var imageURL string
	if req.Image != nil && req.Image.Reader != nil {
		if s.images == nil {
			return nil, apperrors.ValidationError("image uploads are disabled")
		}
		url, err := s.images.Save(ctx, req.Image.Name, req.Image.Reader)
		if err != nil {
			s.contentMetrics.ImageUploads.WithLabelValues("rejected").Inc()
			return nil, imageError(err)
		}
		s.contentMetrics.ImageUploads.WithLabelValues("stored").Inc()
		imageURL = url
	}

	created, err := s.scenarios.Create(ctx, domain.NewScenario{
		Title:       req.Title,
		Description: req.Description,
		Author:      domain.DefaultAuthor,
		Tags:        req.Tags,
		ImageURL:    imageURL,
		Status:      domain.ScenarioStatusActive,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	if err := s.registerTags(ctx, created.Tags); err != nil {
		slog.ErrorContext(ctx, "Scenario stored but tag registration failed", "scenario_id", created.ID, "error", err)
	}

	s.contentMetrics.ScenariosSubmitted.Inc()
	slog.InfoContext(ctx, "Scenario submitted", "scenario_id", created.ID, "tags", len(created.Tags))
	return created, nil
}

func imageError(err error) error {
	switch {
	case errors.Is(err, domain.ErrImageTooLarge):
		return apperrors.ValidationError("image is too large").WithField("image", "too large")
	case errors.Is(err, domain.ErrUnsupportedImage):
		return apperrors.ValidationError("only image files can be uploaded").WithField("image", "unsupported type")
	default:
		return apperrors.InternalError("failed to store image", err)
	}
}

// ListScenarios returns every scenario, newest first.
func (s *Service) ListScenarios(ctx context.Context) (*ScenarioList, error) {
	scenarios, err := s.scenarios.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return &ScenarioList{Scenarios: scenarios, TagColors: s.currentTagColors(ctx)}, nil
}

// LatestScenarios returns at most n scenarios, newest first.
func (s *Service) LatestScenarios(ctx context.Context, n int) (*ScenarioList, error) {
	list, err := s.ListScenarios(ctx)
	if err != nil {
		return nil, err
	}
	if len(list.Scenarios) > n {
		list.Scenarios = list.Scenarios[:n]
	}
	return list, nil
}

// BrowseScenarios returns the scenarios carrying every selected tag.
func (s *Service) BrowseScenarios(ctx context.Context, tags []string) (*BrowseResult, error) {
	list, err := s.ListScenarios(ctx)
	if err != nil {
		return nil, err
	}

	selected := filter.NormalizeTags(tags)
	return &BrowseResult{
		Result:        filter.ByTags(list.Scenarios, selected),
		Selected:      selected,
		AvailableTags: tagNames(list.TagColors),
		TagColors:     list.TagColors,
	}, nil
}

// SearchScenarios runs a highlighted search. A blank query is inactive and
// does not touch the store.
func (s *Service) SearchScenarios(ctx context.Context, query string) (*SearchResult, error) {
	if filter.NormalizeQuery(query) == "" {
		return &SearchResult{TagColors: domain.TagColors{}}, nil
	}

	list, err := s.ListScenarios(ctx)
	if err != nil {
		return nil, err
	}

	res := filter.Search(list.Scenarios, query)
	if res.NoMatches {
		s.contentMetrics.Searches.WithLabelValues("empty").Inc()
	} else {
		s.contentMetrics.Searches.WithLabelValues("found").Inc()
	}
	return &SearchResult{SearchResult: res, TagColors: list.TagColors}, nil
}

// GetDiscussion returns a scenario with its comments, newest first.
func (s *Service) GetDiscussion(ctx context.Context, id uuid.UUID) (*Discussion, error) {
	scenario, err := s.scenarios.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByScenario(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &Discussion{Scenario: scenario, Comments: comments, TagColors: s.currentTagColors(ctx)}, nil
}
