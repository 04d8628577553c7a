package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records run, step and apparatus metrics.
type Metrics struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	steps     *prometheus.CounterVec
	apparatus *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a dedicated registry, alongside the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foundry_runs_total",
				Help: "Total number of finished runs",
			},
			[]string{"status"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foundry_operation_steps_total",
				Help: "Total number of executed operations",
			},
			[]string{"kind"},
		),
		apparatus: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foundry_apparatus_duration_seconds",
				Help:    "Duration of processor and switcher calls",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"opcode"},
		),
	}
	m.registry.MustRegister(
		m.runs,
		m.steps,
		m.apparatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry, e.g. to add application collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			status := domain.RunSucceeded
			if e.Err != nil {
				status = domain.RunFailed
			}
			m.runs.WithLabelValues(string(status)).Inc()
		},
		OnOperationEnter: func(ctx context.Context, e *domain.OperationEvent) {
			m.steps.WithLabelValues(string(e.Kind)).Inc()
		},
		OnApparatusReturn: func(ctx context.Context, e *domain.ApparatusEvent) {
			m.apparatus.WithLabelValues(e.Opcode).Observe(e.Duration.Seconds())
		},
	}
}
