package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for tag color cache performance.
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations prometheus.Counter
	Evictions     prometheus.Counter
}

// NewCacheMetrics creates and registers cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tag_cache",
			Name:      "hits_total",
			Help:      "Total number of tag cache hits, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tag_cache",
			Name:      "misses_total",
			Help:      "Total number of tag cache misses, by layer.",
		}, []string{"layer"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tag_cache",
			Name:      "invalidations_total",
			Help:      "Total number of tag cache invalidations.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tag_cache",
			Name:      "evictions_total",
			Help:      "Total number of expired in-memory tag cache entries evicted.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Invalidations, m.Evictions)
	return m
}
