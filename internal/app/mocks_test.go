package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/domain"
)

// --- Mock implementations ---

type mockScenarioRepo struct {
	createFn      func(ctx context.Context, s domain.NewScenario) (*domain.Scenario, error)
	getByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.Scenario, error)
	listFn        func(ctx context.Context) ([]domain.Scenario, error)
	adjustVotesFn func(ctx context.Context, id uuid.UUID, delta domain.VoteDelta) (domain.VoteCounts, error)
}

func (m *mockScenarioRepo) Create(ctx context.Context, s domain.NewScenario) (*domain.Scenario, error) {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return &domain.Scenario{
		ID:          uuid.New(),
		Title:       s.Title,
		Description: s.Description,
		Author:      s.Author,
		Tags:        s.Tags,
		ImageURL:    s.ImageURL,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
	}, nil
}

func (m *mockScenarioRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrScenarioNotFound
}

func (m *mockScenarioRepo) List(ctx context.Context) ([]domain.Scenario, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockScenarioRepo) AdjustVotes(ctx context.Context, id uuid.UUID, delta domain.VoteDelta) (domain.VoteCounts, error) {
	if m.adjustVotesFn != nil {
		return m.adjustVotesFn(ctx, id, delta)
	}
	return domain.VoteCounts{}, fmt.Errorf("not implemented")
}

type mockCommentRepo struct {
	createFn func(ctx context.Context, scenarioID uuid.UUID, author, body string, createdAt time.Time) (*domain.Comment, error)
	listFn   func(ctx context.Context, scenarioID uuid.UUID) ([]domain.Comment, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, scenarioID uuid.UUID, author, body string, createdAt time.Time) (*domain.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, scenarioID, author, body, createdAt)
	}
	return &domain.Comment{ID: 1, ScenarioID: scenarioID, Author: author, Body: body, CreatedAt: createdAt}, nil
}

func (m *mockCommentRepo) ListByScenario(ctx context.Context, scenarioID uuid.UUID) ([]domain.Comment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, scenarioID)
	}
	return nil, nil
}

type mockContactRepo struct {
	createFn func(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error)
}

func (m *mockContactRepo) Create(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	if m.createFn != nil {
		return m.createFn(ctx, msg)
	}
	msg.ID = 1
	return &msg, nil
}

type mockTagRepo struct {
	listFn   func(ctx context.Context) ([]domain.Tag, error)
	ensureFn func(ctx context.Context, tags []domain.Tag) (int, error)
}

func (m *mockTagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTagRepo) EnsureTags(ctx context.Context, tags []domain.Tag) (int, error) {
	if m.ensureFn != nil {
		return m.ensureFn(ctx, tags)
	}
	return 0, nil
}

type mockTagCache struct {
	tagColorsFn  func(ctx context.Context) (domain.TagColors, error)
	invalidateFn func(ctx context.Context) error
	invalidated  int
}

func (m *mockTagCache) TagColors(ctx context.Context) (domain.TagColors, error) {
	if m.tagColorsFn != nil {
		return m.tagColorsFn(ctx)
	}
	return domain.TagColors{}, nil
}

func (m *mockTagCache) InvalidateTags(ctx context.Context) error {
	m.invalidated++
	if m.invalidateFn != nil {
		return m.invalidateFn(ctx)
	}
	return nil
}

type mockVoteStore struct {
	getFn        func(ctx context.Context, viewerID string, scenarioID uuid.UUID) (domain.VoteState, error)
	setFn        func(ctx context.Context, viewerID string, scenarioID uuid.UUID, state domain.VoteState) error
	getAllFn     func(ctx context.Context, viewerID string) (map[uuid.UUID]domain.VoteState, error)
	transitionFn func(ctx context.Context, viewerID string, scenarioID uuid.UUID, fn domain.VoteTransition) error
}

func (m *mockVoteStore) GetVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID) (domain.VoteState, error) {
	if m.getFn != nil {
		return m.getFn(ctx, viewerID, scenarioID)
	}
	return domain.NoVote, nil
}

func (m *mockVoteStore) SetVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID, state domain.VoteState) error {
	if m.setFn != nil {
		return m.setFn(ctx, viewerID, scenarioID, state)
	}
	return nil
}

func (m *mockVoteStore) GetVoteStates(ctx context.Context, viewerID string) (map[uuid.UUID]domain.VoteState, error) {
	if m.getAllFn != nil {
		return m.getAllFn(ctx, viewerID)
	}
	return map[uuid.UUID]domain.VoteState{}, nil
}

// TransitionVoteState defaults to get, fn, set through the other mock hooks.
func (m *mockVoteStore) TransitionVoteState(ctx context.Context, viewerID string, scenarioID uuid.UUID, fn domain.VoteTransition) error {
	if m.transitionFn != nil {
		return m.transitionFn(ctx, viewerID, scenarioID, fn)
	}
	current, err := m.GetVoteState(ctx, viewerID, scenarioID)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return m.SetVoteState(ctx, viewerID, scenarioID, next)
}

type mockDebouncer struct {
	isDebouncedFn func(ctx context.Context, viewerID string, scenarioID uuid.UUID) (bool, error)
}

func (m *mockDebouncer) IsDebounced(ctx context.Context, viewerID string, scenarioID uuid.UUID) (bool, error) {
	if m.isDebouncedFn != nil {
		return m.isDebouncedFn(ctx, viewerID, scenarioID)
	}
	return false, nil
}

type mockImageStore struct {
	saveFn func(ctx context.Context, name string, r io.Reader) (string, error)
}

func (m *mockImageStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, name, r)
	}
	return "/uploads/1.png", nil
}

// --- Helpers ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	scenarios *mockScenarioRepo
	comments  *mockCommentRepo
	contacts  *mockContactRepo
	tags      *mockTagRepo
	tagCache  *mockTagCache
	votes     *mockVoteStore
	debouncer *mockDebouncer
	images    *mockImageStore
	clock     *clockwork.FakeClock
	vm        *metrics.VoteMetrics
	cm        *metrics.ContentMetrics
}

func newTestDeps() *testDeps {
	reg := prometheus.NewRegistry()
	return &testDeps{
		scenarios: &mockScenarioRepo{},
		comments:  &mockCommentRepo{},
		contacts:  &mockContactRepo{},
		tags:      &mockTagRepo{},
		tagCache:  &mockTagCache{},
		votes:     &mockVoteStore{},
		debouncer: &mockDebouncer{},
		images:    &mockImageStore{},
		clock:     clockwork.NewFakeClockAt(testNow),
		vm:        metrics.NewVoteMetrics(reg),
		cm:        metrics.NewContentMetrics(reg),
	}
}

func (d *testDeps) service() *Service {
	return NewService(Deps{
		Scenarios:      d.scenarios,
		Comments:       d.comments,
		Contacts:       d.contacts,
		Tags:           d.tags,
		TagColors:      d.tagCache,
		TagInvalidator: d.tagCache,
		Votes:          d.votes,
		Debouncer:      d.debouncer,
		Images:         d.images,
		Clock:          d.clock,
		VoteMetrics:    d.vm,
		ContentMetrics: d.cm,
	})
}
