package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RPCRequestsTotal counts outgoing chain RPC calls by method.
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soltax_rpc_requests_total",
			Help: "Total number of Solana RPC requests issued, by method.",
		},
		[]string{"method"},
	)

	// RPCRetriesTotal counts retry attempts (not first attempts) by operation.
	RPCRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soltax_rpc_retries_total",
			Help: "Total number of retried upstream calls, by operation.",
		},
		[]string{"op"},
	)

	// PriceCacheHits counts price lookups served from cache.
	PriceCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soltax_price_cache_hits_total",
			Help: "Total number of price lookups served from the cache.",
		},
	)

	// PriceCacheMisses counts price lookups that went to the price source.
	PriceCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soltax_price_cache_misses_total",
			Help: "Total number of price lookups that missed the cache.",
		},
	)

	// ReportDuration observes end-to-end account report latency.
	ReportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soltax_report_duration_seconds",
			Help:    "Duration of full account report queries.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		RPCRequestsTotal,
		RPCRetriesTotal,
		PriceCacheHits,
		PriceCacheMisses,
		ReportDuration,
	)
}
