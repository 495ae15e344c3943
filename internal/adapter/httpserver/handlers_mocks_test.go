package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ifthen/internal/app"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/platform/config"
	"github.com/stretchr/testify/require"
)

type mockAppService struct {
	submitScenarioFn  func(ctx context.Context, req app.SubmitScenarioRequest) (*domain.Scenario, error)
	listScenariosFn   func(ctx context.Context) (*app.ScenarioList, error)
	latestScenariosFn func(ctx context.Context, n int) (*app.ScenarioList, error)
	browseScenariosFn func(ctx context.Context, tags []string) (*app.BrowseResult, error)
	searchScenariosFn func(ctx context.Context, query string) (*app.SearchResult, error)
	getDiscussionFn   func(ctx context.Context, id uuid.UUID) (*app.Discussion, error)
	addCommentFn      func(ctx context.Context, scenarioID uuid.UUID, body string) (*domain.Comment, error)
	submitContactFn   func(ctx context.Context, req app.ContactRequest) (*domain.ContactMessage, error)
	castVoteFn        func(ctx context.Context, viewerID string, scenarioID uuid.UUID, dir domain.VoteDirection) (*app.VoteResult, error)
	viewerVotesFn     func(ctx context.Context, viewerID string) map[uuid.UUID]domain.VoteState
	availableTagsFn   func(ctx context.Context) []string
}

func (m *mockAppService) SubmitScenario(ctx context.Context, req app.SubmitScenarioRequest) (*domain.Scenario, error) {
	if m.submitScenarioFn != nil {
		return m.submitScenarioFn(ctx, req)
	}
	return &domain.Scenario{ID: uuid.New(), Title: req.Title, Description: req.Description, Tags: req.Tags}, nil
}

func (m *mockAppService) ListScenarios(ctx context.Context) (*app.ScenarioList, error) {
	if m.listScenariosFn != nil {
		return m.listScenariosFn(ctx)
	}
	return &app.ScenarioList{TagColors: domain.TagColors{}}, nil
}

func (m *mockAppService) LatestScenarios(ctx context.Context, n int) (*app.ScenarioList, error) {
	if m.latestScenariosFn != nil {
		return m.latestScenariosFn(ctx, n)
	}
	return &app.ScenarioList{TagColors: domain.TagColors{}}, nil
}

func (m *mockAppService) BrowseScenarios(ctx context.Context, tags []string) (*app.BrowseResult, error) {
	if m.browseScenariosFn != nil {
		return m.browseScenariosFn(ctx, tags)
	}
	return &app.BrowseResult{TagColors: domain.TagColors{}}, nil
}

func (m *mockAppService) SearchScenarios(ctx context.Context, query string) (*app.SearchResult, error) {
	if m.searchScenariosFn != nil {
		return m.searchScenariosFn(ctx, query)
	}
	return &app.SearchResult{TagColors: domain.TagColors{}}, nil
}

func (m *mockAppService) GetDiscussion(ctx context.Context, id uuid.UUID) (*app.Discussion, error) {
	if m.getDiscussionFn != nil {
		return m.getDiscussionFn(ctx, id)
	}
	return nil, domain.ErrScenarioNotFound
}

func (m *mockAppService) AddComment(ctx context.Context, scenarioID uuid.UUID, body string) (*domain.Comment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, scenarioID, body)
	}
	return &domain.Comment{ID: 1, ScenarioID: scenarioID, Author: domain.DefaultAuthor, Body: body}, nil
}

func (m *mockAppService) SubmitContact(ctx context.Context, req app.ContactRequest) (*domain.ContactMessage, error) {
	if m.submitContactFn != nil {
		return m.submitContactFn(ctx, req)
	}
	return &domain.ContactMessage{ID: 1, Name: req.Name, Email: req.Email, Phone: req.Phone, Message: req.Message}, nil
}

func (m *mockAppService) CastVote(ctx context.Context, viewerID string, scenarioID uuid.UUID, dir domain.VoteDirection) (*app.VoteResult, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, viewerID, scenarioID, dir)
	}
	return &app.VoteResult{}, nil
}

func (m *mockAppService) ViewerVotes(ctx context.Context, viewerID string) map[uuid.UUID]domain.VoteState {
	if m.viewerVotesFn != nil {
		return m.viewerVotesFn(ctx, viewerID)
	}
	return map[uuid.UUID]domain.VoteState{}
}

func (m *mockAppService) AvailableTags(ctx context.Context) []string {
	if m.availableTagsFn != nil {
		return m.availableTagsFn(ctx)
	}
	return nil
}

// --- test server ---

type testServerOption func(*Server)

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:         "development",
		StorageDriver:  config.StorageDriverSQLite,
		Port:           "0",
		SessionSecret:  "test-session-secret-at-least-32-bytes",
		SessionMaxAge:  time.Hour,
		MaxUploadBytes: 1 << 20,
	}
}

func newTestServer(t *testing.T, svc appService, opts ...testServerOption) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(), svc, nil, nil, nil)
	require.NoError(t, err)
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

const testViewerID = "7b0b3a44-5d0c-4a8e-a1c3-2f7c9d5e6b10"

// newTestContext builds a context as the viewer middleware would leave it.
func newTestContext(srv *Server, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set(contextKeyViewerID, testViewerID)
	return c, rec
}

// callHandler runs h behind the error middleware with HTML error pages.
func callHandler(srv *Server, c echo.Context, h echo.HandlerFunc) error {
	return ErrorHandlingMiddleware(srv, nil)(h)(c)
}

// csrfCookies performs a GET through the full router and returns the cookies
// plus the CSRF token a browser would echo back.
func csrfCookies(t *testing.T, srv *Server) ([]*http.Cookie, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	var token string
	for _, ck := range cookies {
		if ck.Name == "csrf_token" {
			token = ck.Value
		}
	}
	require.NotEmpty(t, token)
	return cookies, token
}

func testScenario(title string, tags ...string) domain.Scenario {
	return domain.Scenario{
		ID:          uuid.New(),
		Title:       title,
		Description: "Description of " + title,
		Author:      domain.DefaultAuthor,
		Tags:        tags,
		Status:      domain.ScenarioStatusActive,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
