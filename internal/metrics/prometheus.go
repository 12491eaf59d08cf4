// Package metrics exporta en formato Prometheus lo que pasa en el pipeline de matching.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neuromatch/internal/domain"
)

const namespace = "neuromatch"

// Exporter implementa matching.Recorder, service.AnalysisRecorder y
// service.SubmissionRecorder sobre un registry propio.
type Exporter struct {
	registry *prometheus.Registry

	submissions *prometheus.CounterVec
	analyses    *prometheus.CounterVec

	recomputeLatency *prometheus.HistogramVec
	recomputes       *prometheus.CounterVec
	matchUpserts     *prometheus.CounterVec
	peersSkipped     *prometheus.CounterVec
}

type Config struct {
	// Registry a usar; nil crea uno nuevo.
	Registry *prometheus.Registry

	// Buckets del histograma de recalculo, en segundos.
	LatencyBuckets []float64
}

func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}
}

func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quiz",
			Name:      "submissions_total",
			Help:      "Quiz submissions by analysis state and outcome",
		},
		[]string{"state", "status"},
	)

	e.analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Trait extractions by final state and fallback reason",
		},
		[]string{"state", "reason"},
	)

	e.recomputeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "recompute_seconds",
			Help:      "Match recompute latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"metric"},
	)

	e.recomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "recomputes_total",
			Help:      "Match recomputes by similarity metric and outcome",
		},
		[]string{"metric", "status"},
	)

	e.matchUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "upserts_total",
			Help:      "Match records written",
		},
		[]string{"metric"},
	)

	e.peersSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match",
			Name:      "peers_skipped_total",
			Help:      "Peers skipped for dimension mismatch or empty vectors",
		},
		[]string{"metric"},
	)

	registry.MustRegister(
		e.submissions,
		e.analyses,
		e.recomputeLatency,
		e.recomputes,
		e.matchUpserts,
		e.peersSkipped,
	)
	return e
}

func (e *Exporter) ObserveSubmission(state domain.AnalysisState, err error) {
	if state == "" {
		state = "NONE"
	}
	e.submissions.WithLabelValues(string(state), status(err)).Inc()
}

func (e *Exporter) ObserveAnalysis(state domain.AnalysisState, reason string) {
	e.analyses.WithLabelValues(string(state), reason).Inc()
}

func (e *Exporter) ObserveRecompute(metric string, duration time.Duration, written, skipped int, err error) {
	e.recomputeLatency.WithLabelValues(metric).Observe(duration.Seconds())
	e.recomputes.WithLabelValues(metric, status(err)).Inc()
	if written > 0 {
		e.matchUpserts.WithLabelValues(metric).Add(float64(written))
	}
	if skipped > 0 {
		e.peersSkipped.WithLabelValues(metric).Add(float64(skipped))
	}
}

// Handler expone el registry para el endpoint /metrics.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
