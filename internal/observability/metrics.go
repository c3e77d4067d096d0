package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Diagnostic sink for a client that swallows most failures on purpose:
// whatever the coordinators absorb silently still has to show up here.
var (
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "backend_requests_total", Help: "Resolved backend requests by method and outcome"},
		[]string{"method", "outcome"}, // outcome: live, synthetic, cached, failed
	)
	SyntheticResponses = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "synthetic_responses_total", Help: "Requests answered by the synthetic fallback"},
	)
	BackoffWindows = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "backoff_windows_total", Help: "Times the resolver entered its backoff window"},
	)
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "recab_client", Name: "request_duration_seconds", Help: "Live backend request latency", Buckets: prometheus.DefBuckets},
	)

	BackgroundFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "background_failures_total", Help: "Detached task failures by task name"},
		[]string{"task"},
	)
	SOSDispatched = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "sos_dispatched_total", Help: "SOS alerts handed to the dispatch pipeline"},
	)
	SessionExpiries = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "session_expiries_total", Help: "Sessions cleared by the inactivity monitor"},
	)

	OpsRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "ops_requests_total", Help: "Requests served by the ops endpoint by path and status"},
		[]string{"path", "status"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "response_cache_hits_total", Help: "Response cache hits"},
	)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "recab_client", Name: "response_cache_misses_total", Help: "Response cache misses"},
	)
)
