// Package metrics exposes Prometheus instrumentation for check evaluations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petra-dev/upwatch/internal/checker"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upwatch_evaluations_total",
		Help: "Total number of health-check evaluations by mode and resulting status.",
	}, []string{"mode", "status"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "upwatch_evaluation_duration_seconds",
		Help:    "Wall time of a single health-check evaluation, fetch included.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveEvaluation records one completed evaluation.
func ObserveEvaluation(mode checker.Mode, status checker.Status, elapsed time.Duration) {
	evaluationsTotal.WithLabelValues(string(mode), string(status)).Inc()
	evaluationDuration.Observe(elapsed.Seconds())
}
