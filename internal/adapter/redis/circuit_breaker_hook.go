package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// CircuitBreakerHook guards every Redis command with a circuit breaker. While
// the breaker is open, GETs of recently read keys are answered from a local
// copy and everything else fails fast.
type CircuitBreakerHook struct {
	cb    *gobreaker.CircuitBreaker
	cache *cacheStore
	clock clockwork.Clock
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

type cacheStore struct {
	mu     sync.RWMutex
	values map[string]cachedValue
}

type cachedValue struct {
	data      string
	timestamp time.Time
}

const fallbackCacheTTL = 5 * time.Minute

// ErrCircuitOpen is returned for commands rejected by an open breaker.
var ErrCircuitOpen = errors.New("redis circuit breaker open")

func defaultBreakerSettings(m *metrics.RedisMetrics) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if m != nil {
				m.BreakerStateChanges.WithLabelValues(to.String()).Inc()
				m.BreakerState.Set(stateToFloat(to))
			}
		},
	}
}

// NewCircuitBreakerHook trips after at least 5 commands in a 10s window with a
// 60% failure rate and probes again after 30s. m may be nil.
func NewCircuitBreakerHook(m *metrics.RedisMetrics, clock clockwork.Clock) *CircuitBreakerHook {
	return newCircuitBreakerHook(defaultBreakerSettings(m), clock)
}

func newCircuitBreakerHook(settings gobreaker.Settings, clock clockwork.Clock) *CircuitBreakerHook {
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = isSuccessful
	}
	return &CircuitBreakerHook{
		cb:    gobreaker.NewCircuitBreaker(settings),
		cache: &cacheStore{values: make(map[string]cachedValue)},
		clock: clock,
	}
}

// isSuccessful reports whether Redis answered. Error replies such as
// NOSCRIPT come from a healthy server.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, goredis.Nil) {
		return true
	}
	var reply goredis.Error
	return errors.As(err, &reply)
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := h.cb.Execute(func() (any, error) {
			return next(ctx, network, addr)
		})
		if isRejected(err) {
			return nil, fmt.Errorf("circuit breaker dial failed: %w", ErrCircuitOpen)
		}
		if err != nil {
			return nil, fmt.Errorf("circuit breaker dial failed: %w", err)
		}
		return conn.(net.Conn), nil
	}
}

func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmd)
		})
		if isRejected(err) {
			return h.handleFallback(cmd)
		}
		if isSuccessful(err) {
			h.cacheResult(cmd)
		}
		// goredis.Nil must pass through unchanged.
		return err
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmds)
		})
		if isRejected(err) {
			return ErrCircuitOpen
		}
		return err
	}
}

func (h *CircuitBreakerHook) handleFallback(cmd goredis.Cmder) error {
	if cmd.Name() == "get" {
		if c, ok := cmd.(*goredis.StringCmd); ok {
			if value, ok := h.getFromCache(cmd); ok {
				slog.Debug("Circuit breaker open, serving from cache", "command", cmd.Name())
				c.SetVal(value)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s rejected", ErrCircuitOpen, cmd.Name())
}

func (h *CircuitBreakerHook) cacheResult(cmd goredis.Cmder) {
	if cmd.Name() != "get" || len(cmd.Args()) < 2 {
		return
	}
	c, ok := cmd.(*goredis.StringCmd)
	if !ok || c.Err() != nil {
		return
	}

	key := fmt.Sprint(cmd.Args()[1])
	h.cache.mu.Lock()
	h.cache.values[key] = cachedValue{data: c.Val(), timestamp: h.clock.Now()}
	h.cache.mu.Unlock()
}

func (h *CircuitBreakerHook) getFromCache(cmd goredis.Cmder) (string, bool) {
	args := cmd.Args()
	if len(args) < 2 {
		return "", false
	}
	key := fmt.Sprint(args[1])

	h.cache.mu.RLock()
	defer h.cache.mu.RUnlock()

	cached, ok := h.cache.values[key]
	if !ok || h.clock.Since(cached.timestamp) > fallbackCacheTTL {
		return "", false
	}
	return cached.data, true
}

func (h *CircuitBreakerHook) GetState() gobreaker.State {
	return h.cb.State()
}

func (h *CircuitBreakerHook) GetCounts() gobreaker.Counts {
	return h.cb.Counts()
}
