package regulation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of MiCA registry lookups served from cache",
			Name:      "regulation_cache_hits",
			Namespace: "assetkit",
		},
	)
	cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of MiCA registry lookups that went to the store",
			Name:      "regulation_cache_misses",
			Namespace: "assetkit",
		},
	)
)

func init() {
	prometheus.MustRegister(
		cacheHits,
		cacheMisses,
	)
}
