package httpserver

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	apperrors "github.com/pscheid92/ifthen/internal/platform/errors"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// rateLimit is one per-IP token bucket family. Forms and votes are limited
// separately so a burst of votes never blocks a scenario submission.
type rateLimit struct {
	name      string
	perSecond float64
	burst     int
}

var (
	formLimit = rateLimit{name: "forms", perSecond: 1, burst: 10}
	voteLimit = rateLimit{name: "votes", perSecond: 10, burst: 20}
)

// retryAfter is the whole number of seconds until one token is refilled.
func (l rateLimit) retryAfter() string {
	if l.perSecond <= 0 {
		return strconv.Itoa(int(rateLimiterExpiry.Seconds()))
	}
	return strconv.Itoa(int(math.Ceil(1 / l.perSecond)))
}

// newRateLimiter limits by client IP. Viewer ids are not used as the key
// since a client can drop its cookie to get a fresh one. m may be nil.
func newRateLimiter(limit rateLimit, m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit.perSecond),
			Burst:     limit.burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if m != nil {
				m.RateLimitedTotal.WithLabelValues(limit.name).Inc()
			}
			slog.WarnContext(c.Request().Context(), "Request rate limited",
				"limit", limit.name,
				"ip", identifier,
				"path", c.Path())

			c.Response().Header().Set("Retry-After", limit.retryAfter())
			return apperrors.RateLimitedError("rate limit exceeded").WithField("limit", limit.name)
		},
	})
}
