// Package prometheus defines the GrantScope metric instruments and the
// exposition handler.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument the platform emits.  A single instance is
// shared across subsystems; labels separate the callers.
type Metrics struct {
	registry *prometheus.Registry

	ScoringTotal      *prometheus.CounterVec
	MatchesReturned   prometheus.Histogram
	PredictionSeconds prometheus.Histogram
	PredictionsTotal  *prometheus.CounterVec

	ScrapeCyclesTotal *prometheus.CounterVec
	GrantsDiscovered  *prometheus.CounterVec
	ScrapeErrors      *prometheus.CounterVec

	HTTPRequestSeconds *prometheus.HistogramVec
	HTTPRequestsTotal  *prometheus.CounterVec
}

// New builds a metrics bundle on a fresh registry (with the standard Go and
// process collectors attached).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		ScoringTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantscope",
			Subsystem: "scoring",
			Name:      "operations_total",
			Help:      "Relevance scoring operations by entity kind.",
		}, []string{"kind"}),

		MatchesReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grantscope",
			Subsystem: "scoring",
			Name:      "matches_returned",
			Help:      "Number of matches returned per match request.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),

		PredictionSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grantscope",
			Subsystem: "predictor",
			Name:      "latency_seconds",
			Help:      "Success prediction latency.",
			Buckets:   prometheus.DefBuckets,
		}),

		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantscope",
			Subsystem: "predictor",
			Name:      "predictions_total",
			Help:      "Predictions by risk bucket.",
		}, []string{"risk"}),

		ScrapeCyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantscope",
			Subsystem: "monitor",
			Name:      "scrape_cycles_total",
			Help:      "Completed polling cycles per source.",
		}, []string{"source"}),

		GrantsDiscovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantscope",
			Subsystem: "monitor",
			Name:      "grants_discovered_total",
			Help:      "New grants discovered per source.",
		}, []string{"source"}),

		ScrapeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantscope",
			Subsystem: "monitor",
			Name:      "scrape_errors_total",
			Help:      "Scrape failures per source.",
		}, []string{"source"}),

		HTTPRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grantscope",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantscope",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the /metrics exposition handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePrediction records one prediction with its latency and risk bucket.
func (m *Metrics) ObservePrediction(start time.Time, risk string) {
	m.PredictionSeconds.Observe(time.Since(start).Seconds())
	m.PredictionsTotal.WithLabelValues(risk).Inc()
}
