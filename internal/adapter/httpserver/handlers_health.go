package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/ifthen/internal/platform/version"
)

const (
	startupProbeTimeout   = 2 * time.Second
	readinessProbeTimeout = 5 * time.Second
)

// HealthCheck is a named dependency check. Optional dependencies have a
// fallback (Redis): their failure marks readiness degraded instead of failing it.
type HealthCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

const (
	healthReady     = "ready"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

// healthReport is the body of the startup and readiness probes.
type healthReport struct {
	Status      string            `json:"status"`
	FailedCheck string            `json:"failed_check,omitempty"`
	Error       string            `json:"error,omitempty"`
	Checks      map[string]string `json:"checks"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

// handleStartup requires every dependency, optional ones included, so an
// instance does not start taking traffic with Redis unreachable.
func (s *Server) handleStartup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), startupProbeTimeout)
	defer cancel()

	return s.writeHealthReport(c, s.checkHealth(ctx, true))
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()

	ephemeral := "memory"
	if s.config.RedisURL != "" {
		ephemeral = "redis"
	}

	response := map[string]any{
		"status":    "ok",
		"uptime":    uptime,
		"storage":   s.config.StorageDriver,
		"ephemeral": ephemeral,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}

	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	return s.writeHealthReport(c, s.checkHealth(ctx, false))
}

// checkHealth runs every check. The first failing required check (all checks
// when strict) makes the report unhealthy.
func (s *Server) checkHealth(ctx context.Context, strict bool) healthReport {
	report := healthReport{Status: healthReady, Checks: make(map[string]string, len(s.healthChecks))}

	for _, hc := range s.healthChecks {
		err := hc.Check(ctx)
		if err == nil {
			report.Checks[hc.Name] = "ok"
			continue
		}
		report.Checks[hc.Name] = err.Error()

		if hc.Optional && !strict {
			if report.Status == healthReady {
				report.Status = healthDegraded
			}
			slog.WarnContext(ctx, "Optional dependency unhealthy", "check", hc.Name, "error", err)
			continue
		}
		if report.Status != healthUnhealthy {
			report.Status = healthUnhealthy
			report.FailedCheck = hc.Name
			report.Error = err.Error()
		}
	}
	return report
}

func (s *Server) writeHealthReport(c echo.Context, report healthReport) error {
	status := http.StatusOK
	if report.Status == healthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	if err := c.JSON(status, report); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
