package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/adapter/metrics"
	"github.com/pscheid92/ifthen/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	tagColorsKey        = "tag_colors"
	tagColorsRedisTTL   = time.Hour
	defaultTagMemoryTTL = 5 * time.Minute
	evictionInterval    = time.Minute
)

type cacheEntry struct {
	colors    domain.TagColors
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	clock   clockwork.Clock
}

func newMemoryCache(clock clockwork.Clock) *memoryCache {
	return &memoryCache{entries: make(map[string]cacheEntry), clock: clock}
}

func (c *memoryCache) get(key string) (domain.TagColors, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.colors, true
}

func (c *memoryCache) set(key string, colors domain.TagColors, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{colors: colors, expiresAt: c.clock.Now().Add(ttl)}
}

func (c *memoryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// TagCache provides read-through caching of tag colors:
// L1 in-memory (per instance), L2 Redis (shared), L3 the tag repository.
// Concurrent misses collapse into one load.
type TagCache struct {
	rdb       goredis.Cmdable
	tags      domain.TagRepository
	memory    *memoryCache
	memoryTTL time.Duration
	clock     clockwork.Clock
	metrics   *metrics.CacheMetrics
	group     singleflight.Group
}

var (
	_ domain.TagSource           = (*TagCache)(nil)
	_ domain.TagCacheInvalidator = (*TagCache)(nil)
)

func NewTagCache(rdb goredis.Cmdable, tags domain.TagRepository, memoryTTL time.Duration, clock clockwork.Clock, m *metrics.CacheMetrics) *TagCache {
	if memoryTTL <= 0 {
		memoryTTL = defaultTagMemoryTTL
	}
	return &TagCache{
		rdb:       rdb,
		tags:      tags,
		memory:    newMemoryCache(clock),
		memoryTTL: memoryTTL,
		clock:     clock,
		metrics:   m,
	}
}

func (c *TagCache) TagColors(ctx context.Context) (domain.TagColors, error) {
	if colors, ok := c.memory.get(tagColorsKey); ok {
		c.metrics.Hits.WithLabelValues("memory").Inc()
		return colors, nil
	}
	c.metrics.Misses.WithLabelValues("memory").Inc()

	v, err, _ := c.group.Do(tagColorsKey, func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.TagColors), nil
}

func (c *TagCache) load(ctx context.Context) (domain.TagColors, error) {
	colors, err := c.fromRedis(ctx)
	if err == nil {
		c.metrics.Hits.WithLabelValues("redis").Inc()
		c.memory.set(tagColorsKey, colors, c.memoryTTL)
		return colors, nil
	}
	c.metrics.Misses.WithLabelValues("redis").Inc()
	if !errors.Is(err, goredis.Nil) {
		slog.WarnContext(ctx, "Redis tag cache read failed, falling back to database", "error", err)
	}

	tags, err := c.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	colors = domain.NewTagColors(tags)

	c.memory.set(tagColorsKey, colors, c.memoryTTL)
	if data, err := json.Marshal(colors); err == nil {
		if err := c.rdb.Set(ctx, tagColorsKey, data, tagColorsRedisTTL).Err(); err != nil {
			slog.WarnContext(ctx, "Failed to populate Redis tag cache", "error", err)
		}
	}
	return colors, nil
}

func (c *TagCache) fromRedis(ctx context.Context) (domain.TagColors, error) {
	data, err := c.rdb.Get(ctx, tagColorsKey).Bytes()
	if err != nil {
		return nil, err
	}

	var colors domain.TagColors
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("failed to decode cached tag colors: %w", err)
	}
	return colors, nil
}

// InvalidateTags drops both cache layers and tells other instances to drop
// their in-memory copy.
func (c *TagCache) InvalidateTags(ctx context.Context) error {
	c.invalidateLocal()

	if err := c.rdb.Del(ctx, tagColorsKey).Err(); err != nil {
		return fmt.Errorf("failed to delete cached tag colors: %w", err)
	}
	if err := PublishTagInvalidation(ctx, c.rdb); err != nil {
		return err
	}
	return nil
}

func (c *TagCache) invalidateLocal() {
	c.memory.invalidate(tagColorsKey)
	c.metrics.Invalidations.Inc()
}

// StartEvictionTimer evicts expired in-memory entries every minute until the
// returned stop function is called.
func (c *TagCache) StartEvictionTimer() func() {
	ticker := c.clock.NewTicker(evictionInterval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if n := c.memory.evictExpired(); n > 0 {
					c.metrics.Evictions.Add(float64(n))
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
