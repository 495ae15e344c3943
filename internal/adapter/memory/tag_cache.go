package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/domain"
	"golang.org/x/sync/singleflight"
)

// TagCache caches tag colors in process memory in front of the tag repository.
type TagCache struct {
	tags    domain.TagRepository
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *metrics.CacheMetrics
	group   singleflight.Group

	mu        sync.RWMutex
	colors    domain.TagColors
	expiresAt time.Time
}

var (
	_ domain.TagSource           = (*TagCache)(nil)
	_ domain.TagCacheInvalidator = (*TagCache)(nil)
)

func NewTagCache(tags domain.TagRepository, ttl time.Duration, clock clockwork.Clock, m *metrics.CacheMetrics) *TagCache {
	return &TagCache{tags: tags, ttl: ttl, clock: clock, metrics: m}
}

func (c *TagCache) cached() (domain.TagColors, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.colors == nil || c.clock.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.colors, true
}

func (c *TagCache) TagColors(ctx context.Context) (domain.TagColors, error) {
	if colors, ok := c.cached(); ok {
		c.metrics.Hits.WithLabelValues("memory").Inc()
		return colors, nil
	}
	c.metrics.Misses.WithLabelValues("memory").Inc()

	v, err, _ := c.group.Do("tags", func() (any, error) {
		tags, err := c.tags.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load tags: %w", err)
		}
		colors := domain.NewTagColors(tags)

		c.mu.Lock()
		c.colors = colors
		c.expiresAt = c.clock.Now().Add(c.ttl)
		c.mu.Unlock()
		return colors, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.TagColors), nil
}

func (c *TagCache) InvalidateTags(context.Context) error {
	c.mu.Lock()
	c.colors = nil
	c.mu.Unlock()
	c.metrics.Invalidations.Inc()
	return nil
}
