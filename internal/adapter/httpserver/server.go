package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/app"
	"github.com/pscheid92/ifthen/internal/domain"
	"github.com/pscheid92/ifthen/internal/platform/config"
	"github.com/pscheid92/ifthen/web"
)

type appService interface {
	SubmitScenario(ctx context.Context, req app.SubmitScenarioRequest) (*domain.Scenario, error)
	ListScenarios(ctx context.Context) (*app.ScenarioList, error)
	LatestScenarios(ctx context.Context, n int) (*app.ScenarioList, error)
	BrowseScenarios(ctx context.Context, tags []string) (*app.BrowseResult, error)
	SearchScenarios(ctx context.Context, query string) (*app.SearchResult, error)
	GetDiscussion(ctx context.Context, id uuid.UUID) (*app.Discussion, error)
	AddComment(ctx context.Context, scenarioID uuid.UUID, body string) (*domain.Comment, error)
	SubmitContact(ctx context.Context, req app.ContactRequest) (*domain.ContactMessage, error)
	CastVote(ctx context.Context, viewerID string, scenarioID uuid.UUID, dir domain.VoteDirection) (*app.VoteResult, error)
	ViewerVotes(ctx context.Context, viewerID string) map[uuid.UUID]domain.VoteState
	AvailableTags(ctx context.Context) []string
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService

	templates *template.Template

	sessionStore   *sessions.CookieStore
	healthChecks   []HealthCheck
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	startTime      time.Time
}

// NewServer wires the echo instance. httpMetrics and metricsHandler may be nil.
func NewServer(cfg *config.Config, app appService, healthChecks []HealthCheck, httpMetrics *metrics.HTTPMetrics, metricsHandler http.Handler) (*Server, error) {
	templates, err := template.New("").Funcs(templateFuncs()).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		templates:      templates,
		sessionStore:   setupSessionStore(cfg),
		healthChecks:   healthChecks,
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName        = "ifthen-session"
	sessionKeyViewerID = "viewer_id"
)

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	return s.renderTemplateStatus(c, http.StatusOK, name, data)
}

func (s *Server) renderTemplateStatus(c echo.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "template", name, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(status, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
