// Package middleware provides cross-cutting concerns for the run engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of submission throughput,
// judgement backlog, and scoring latency for a live competition run.
type PrometheusMetrics struct {
	submissionsTotal *prometheus.CounterVec
	judgementPending prometheus.Gauge
	scoringLatency   prometheus.Histogram
	runEventsTotal   *prometheus.CounterVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance registered
// with the given registerer; nil uses the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_submissions_total",
				Help: "Total number of processed submissions by outcome.",
			},
			[]string{"outcome"},
		),
		judgementPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "arena_judgement_pending",
				Help: "Submissions queued or awaiting a judge verdict.",
			},
		),
		scoringLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "arena_scoring_duration_seconds",
				Help:    "Duration of one scoring pass over a task.",
				Buckets: prometheus.DefBuckets,
			},
		),
		runEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_run_events_total",
				Help: "Total number of emitted run events by kind.",
			},
			[]string{"kind"},
		),
	}
}

// RecordSubmission counts one processed submission by outcome.
func (pm *PrometheusMetrics) RecordSubmission(outcome string) {
	pm.submissionsTotal.WithLabelValues(outcome).Inc()
}

// SetJudgementPending reports the current pending judgement count.
func (pm *PrometheusMetrics) SetJudgementPending(n int) {
	pm.judgementPending.Set(float64(n))
}

// RecordScoringLatency records the duration of one scoring pass.
func (pm *PrometheusMetrics) RecordScoringLatency(d time.Duration) {
	pm.scoringLatency.Observe(d.Seconds())
}

// RecordRunEvent counts one emitted run event by kind.
func (pm *PrometheusMetrics) RecordRunEvent(kind ports.RunEventKind) {
	pm.runEventsTotal.WithLabelValues(string(kind)).Inc()
}
