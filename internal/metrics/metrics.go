package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the analysis pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal   *prometheus.CounterVec // labels: result
	FetchDuration   prometheus.Histogram
	ComputeDuration prometheus.Histogram
	BarsAnalyzed    prometheus.Histogram
	LevelsDetected  *prometheus.CounterVec // labels: kind
	SummaryTags     *prometheus.CounterVec // labels: family, state
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_analyses_total",
			Help: "Analysis runs by result (ok, fetch_error, invalid_input, compute_error)",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketlens_fetch_duration_seconds",
			Help:    "Time spent fetching a price series",
			Buckets: prometheus.DefBuckets,
		}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketlens_compute_duration_seconds",
			Help:    "Time spent computing indicators, levels and summary",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		BarsAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketlens_bars_analyzed",
			Help:    "Number of bars per analyzed series",
			Buckets: []float64{20, 50, 100, 250, 500, 1000, 2500},
		}),
		LevelsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_levels_detected_total",
			Help: "Support and resistance levels emitted",
		}, []string{"kind"}),
		SummaryTags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_summary_tags_total",
			Help: "Interpretation tags emitted by family and state",
		}, []string{"family", "state"}),
	}
	m.registry.MustRegister(
		m.AnalysesTotal,
		m.FetchDuration,
		m.ComputeDuration,
		m.BarsAnalyzed,
		m.LevelsDetected,
		m.SummaryTags,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveCompute(d time.Duration, bars int) {
	if m == nil {
		return
	}
	m.ComputeDuration.Observe(d.Seconds())
	m.BarsAnalyzed.Observe(float64(bars))
}

func (m *Metrics) IncResult(result string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AddLevels(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.LevelsDetected.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncTag(family, state string) {
	if m == nil {
		return
	}
	m.SummaryTags.WithLabelValues(family, state).Inc()
}
