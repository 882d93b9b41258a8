package metrics

import (
	"database/sql"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "lcatricity_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	resampleTotal *prometheus.CounterVec

	impactRowsDropped prometheus.Counter
	impactLatency     *prometheus.HistogramVec

	responseCache *prometheus.CounterVec
)

// Init registers service metrics and, when db is set, DB-backed gauges.
func Init(db *sql.DB, logger *slog.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		)

		resampleTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "resample_total",
				Help: "Resampled result sets by final bucket width",
			},
			[]string{"bucket"},
		)

		impactRowsDropped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "impact_rows_unmatched_total",
				Help: "Generation rows dropped for lack of an impact factor",
			},
		)
		impactLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "impact_calculation_seconds",
				Help:    "Impact calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		responseCache = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "response_cache_total",
				Help: "Response cache lookups by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			resampleTotal,
			impactRowsDropped,
			impactLatency,
			responseCache,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveHTTP records a served request.
func ObserveHTTP(endpoint string, status int, duration time.Duration) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
	}
}

// IncResample counts a resampled result set by its final bucket.
func IncResample(bucket string) {
	if bucket == "" {
		bucket = "unknown"
	}
	if resampleTotal != nil {
		resampleTotal.WithLabelValues(bucket).Inc()
	}
}

// AddImpactRowsDropped counts generation rows without a matching factor.
func AddImpactRowsDropped(count int) {
	if count <= 0 {
		return
	}
	if impactRowsDropped != nil {
		impactRowsDropped.Add(float64(count))
	}
}

// ObserveImpact records impact calculation latency and result.
func ObserveImpact(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if impactLatency != nil {
		impactLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncResponseCache counts a cache hit, miss or error.
func IncResponseCache(outcome string) {
	if responseCache != nil {
		responseCache.WithLabelValues(outcome).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)
