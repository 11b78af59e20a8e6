// Package metrics provides Prometheus metrics for the detection engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trafficpulse"

// Metrics holds the engine's Prometheus collectors on a private registry so
// tests can instantiate it repeatedly without duplicate registration.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	CamerasEvaluated prometheus.Counter
	DetectionsTotal  *prometheus.CounterVec
	FilteredTotal    *prometheus.CounterVec
	DispatchTotal    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by kind and result.",
		}, []string{"kind", "result"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		CamerasEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cameras_evaluated_total",
			Help:      "Cameras evaluated across all runs.",
		}),
		DetectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Aggregate detections by severity.",
		}, []string{"severity"}),
		FilteredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_filtered_total",
			Help:      "Detections suppressed by false-positive filters.",
		}, []string{"reason"}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Broker dispatches by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.CamerasEvaluated,
		m.DetectionsTotal,
		m.FilteredTotal,
		m.DispatchTotal,
	)
	return m
}
