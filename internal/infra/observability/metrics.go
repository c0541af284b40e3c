package observability

import (
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the report API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	dataSourceErrors *prometheus.CounterVec
	seriesComputed   *prometheus.CounterVec
	daysEvaluated    prometheus.Counter
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	reportsMailed    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "report_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		dataSourceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_data_source_errors_total",
				Help: "Total errors from data sources.",
			},
			[]string{"source"},
		),
		seriesComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_series_computed_total",
				Help: "Total default-rate series computations by granularity.",
			},
			[]string{"granularity"},
		),
		daysEvaluated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "report_days_evaluated_total",
				Help: "Total business days evaluated across all series.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		reportsMailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_emails_total",
				Help: "Total report e-mails by delivery status.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrDataSourceError increments the data source error counter.
func (m *Metrics) IncrDataSourceError(source string) {
	m.dataSourceErrors.WithLabelValues(source).Inc()
}

// RecordSeries records one completed series computation and how many
// business days it evaluated.
func (m *Metrics) RecordSeries(granularity string, days int) {
	m.seriesComputed.WithLabelValues(granularity).Inc()
	m.daysEvaluated.Add(float64(days))
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrReportMailed increments the mailed report counter with a status label.
func (m *Metrics) IncrReportMailed(status string) {
	m.reportsMailed.WithLabelValues(status).Inc()
}

// GetEngineSnapshot returns a snapshot of engine-related metrics suitable for
// the GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	// Prometheus counters expose cumulative values.
	series := getCounterValue(m.seriesComputed, "day") +
		getCounterValue(m.seriesComputed, "month") +
		getCounterValue(m.seriesComputed, "quarter_week") +
		getCounterValue(m.seriesComputed, "year") +
		getCounterValue(m.seriesComputed, "all")
	sourceErrors := getCounterValue(m.dataSourceErrors, "postgres")
	cacheHits := getCounterValue(m.cacheHits, "churn")
	cacheMisses := getCounterValue(m.cacheMisses, "churn")

	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		SeriesComputed:   int64(series),
		DaysEvaluated:    int64(getSingleCounterValue(m.daysEvaluated)),
		DataSourceErrors: int64(sourceErrors),
		CacheHitRate:     cacheHitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getSingleCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
