package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/domain"
)

// Deps are the collaborators of a Service. Images may be nil when uploads are
// disabled.
type Deps struct {
	Scenarios      domain.ScenarioRepository
	Comments       domain.CommentRepository
	Contacts       domain.ContactRepository
	Tags           domain.TagRepository
	TagColors      domain.TagSource
	TagInvalidator domain.TagCacheInvalidator
	Votes          domain.ViewerVoteStore
	Debouncer      domain.VoteDebouncer
	Images         domain.ImageStore
	Clock          clockwork.Clock
	VoteMetrics    *metrics.VoteMetrics
	ContentMetrics *metrics.ContentMetrics
}

// Service is the application layer. It orchestrates all use cases.
type Service struct {
	scenarios      domain.ScenarioRepository
	comments       domain.CommentRepository
	contacts       domain.ContactRepository
	tags           domain.TagRepository
	tagColors      domain.TagSource
	tagInvalidator domain.TagCacheInvalidator
	votes          domain.ViewerVoteStore
	debouncer      domain.VoteDebouncer
	images         domain.ImageStore
	clock          clockwork.Clock
	voteMetrics    *metrics.VoteMetrics
	contentMetrics *metrics.ContentMetrics
	validate       *validator.Validate
	randomColor    func() string
}

func NewService(d Deps) *Service {
	return &Service{
		scenarios:      d.Scenarios,
		comments:       d.Comments,
		contacts:       d.Contacts,
		tags:           d.Tags,
		tagColors:      d.TagColors,
		tagInvalidator: d.TagInvalidator,
		votes:          d.Votes,
		debouncer:      d.Debouncer,
		images:         d.Images,
		clock:          d.Clock,
		voteMetrics:    d.VoteMetrics,
		contentMetrics: d.ContentMetrics,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		randomColor:    RandomTagColor,
	}
}

// RandomTagColor returns a random "#rrggbb" color.
func RandomTagColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000)) //nolint:gosec // display color
}

// currentTagColors degrades to default colors when the tag source fails.
func (s *Service) currentTagColors(ctx context.Context) domain.TagColors {
	colors, err := s.tagColors.TagColors(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load tag colors, using defaults", "error", err)
		return domain.TagColors{}
	}
	return colors
}

// AvailableTags returns every known tag name, sorted.
func (s *Service) AvailableTags(ctx context.Context) []string {
	return tagNames(s.currentTagColors(ctx))
}

func tagNames(colors domain.TagColors) []string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// registerTags stores unseen tags with a random color and invalidates the tag
// cache when anything was inserted.
func (s *Service) registerTags(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	tags := make([]domain.Tag, len(names))
	for i, name := range names {
		tags[i] = domain.Tag{Name: name, Color: s.randomColor()}
	}

	inserted, err := s.tags.EnsureTags(ctx, tags)
	if err != nil {
		return fmt.Errorf("failed to register tags: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	if err := s.tagInvalidator.InvalidateTags(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate tag cache", "error", err)
	}
	slog.InfoContext(ctx, "Registered new tags", "count", inserted)
	return nil
}
