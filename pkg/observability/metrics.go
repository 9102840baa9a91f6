package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/weft/pkg/domain"
)

// Namespace prefixes every metric name.
const Namespace = "weft"

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	Renders        *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec
	RenderErrors   *prometheus.CounterVec
	ActionsExposed prometheus.Gauge
	Actions        *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "renders_total",
				Help:      "Total number of resolution passes",
			},
			[]string{"thread", "mode"},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "render_duration_seconds",
				Help:      "Duration of resolution passes, serialization included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		RenderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "render_errors_total",
				Help:      "Total number of failed resolution passes",
			},
			[]string{"thread"},
		),
		ActionsExposed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "actions_exposed",
				Help:      "Number of actions declared by the latest rendered turn",
			},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "actions_total",
				Help:      "Total number of executed actions by outcome",
			},
			[]string{"action", "outcome"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of action executions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
	}
	m.registry.MustRegister(
		m.Renders,
		m.RenderDuration,
		m.RenderErrors,
		m.ActionsExposed,
		m.Actions,
		m.ActionDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record render and action events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(_ context.Context, e *domain.RenderEvent) {
			if e.Err != nil {
				m.RenderErrors.WithLabelValues(e.Thread).Inc()
				return
			}
			m.Renders.WithLabelValues(e.Thread, string(e.Mode)).Inc()
			m.RenderDuration.WithLabelValues(string(e.Mode)).Observe(e.Duration.Seconds())
			m.ActionsExposed.Set(float64(e.Actions))
		},
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			outcome := string(e.Outcome)
			if e.Err != nil {
				outcome = "error"
			}
			m.Actions.WithLabelValues(e.Action, outcome).Inc()
			m.ActionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
		},
	}
}
