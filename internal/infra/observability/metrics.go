package observability

import (
	"time"

	"github.com/lifecompass/finance-bfa-go/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the finance backend.
type Metrics struct {
	// Registry owns these metrics; the /metrics endpoint serves it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	lookups         *prometheus.CounterVec
	percentiles     *prometheus.HistogramVec
	ratings         *prometheus.CounterVec
	fallbackRates   prometheus.Counter
}

// NewMetrics creates a private registry and registers every metric in it,
// so tests can build as many instances as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finance_request_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_percentile_lookups_total",
				Help: "Percentile lookups by reference table.",
			},
			[]string{"table"},
		),
		percentiles: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finance_percentile_value",
				Help:    "Distribution of computed percentiles.",
				Buckets: prometheus.LinearBuckets(10, 10, 9),
			},
			[]string{"table"},
		),
		ratings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_ratings_total",
				Help: "Ratings handed out by label.",
			},
			[]string{"label"},
		),
		fallbackRates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finance_fallback_rates_total",
				Help: "Times the static fallback exchange rates were served.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// ObservePercentile counts one lookup against table and records its result.
func (m *Metrics) ObservePercentile(table string, percentile float64) {
	m.lookups.WithLabelValues(table).Inc()
	m.percentiles.WithLabelValues(table).Observe(percentile)
}

// IncrRating counts a rating label handed out.
func (m *Metrics) IncrRating(label string) {
	m.ratings.WithLabelValues(label).Inc()
}

// IncrFallbackRates counts one use of the static fallback rates.
func (m *Metrics) IncrFallbackRates() {
	m.fallbackRates.Inc()
}

// GetEngineSnapshot reads the cumulative counters back for GET /v1/metrics/engine.
func (m *Metrics) GetEngineSnapshot(tables, labels []string) *domain.EngineMetrics {
	lookups := make(map[string]int64, len(tables))
	for _, t := range tables {
		lookups[t] = int64(getCounterValue(m.lookups, t))
	}
	ratings := make(map[string]int64, len(labels))
	for _, l := range labels {
		ratings[l] = int64(getCounterValue(m.ratings, l))
	}

	hits := getCounterValue(m.cacheHits, "rates")
	misses := getCounterValue(m.cacheMisses, "rates")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.EngineMetrics{
		Lookups:       lookups,
		Ratings:       ratings,
		RateCacheHits: int64(hits),
		RateCacheMiss: int64(misses),
		CacheHitRate:  hitRate,
		FallbackRates: int64(readCounter(m.fallbackRates)),
		Period:        "all_time",
	}
}

// getCounterValue extracts the current value of one labelled counter.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
