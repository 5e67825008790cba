package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records command dispatches and submit guard activity.
type Metrics struct {
	registry *prometheus.Registry

	commands  *prometheus.CounterVec
	guards    *prometheus.CounterVec
	guardHold *prometheus.HistogramVec
	inFlight  *prometheus.GaugeVec
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithRegistry registers the collectors on an existing registry.
func WithRegistry(reg *prometheus.Registry) MetricsOption {
	return func(m *Metrics) {
		m.registry = reg
	}
}

// WithProcessCollectors adds the Go runtime and process collectors.
func WithProcessCollectors() MetricsOption {
	return func(m *Metrics) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewMetrics creates the collectors on a private registry unless WithRegistry is given.
func NewMetrics(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annotate_commands_total",
				Help: "Commands resolved by the router",
			},
			[]string{"command", "handled"},
		),
		guards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annotate_guard_releases_total",
				Help: "Submit guard releases by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		guardHold: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "annotate_guard_hold_seconds",
				Help:    "How long the submit guard stayed engaged",
				Buckets: []float64{0.25, 0.5, 0.75, 1, 2, 3, 5, 10},
			},
			[]string{"action"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "annotate_guard_in_flight",
				Help: "Submit guards currently engaged",
			},
			[]string{"action"},
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry.MustRegister(m.commands, m.guards, m.guardHold, m.inFlight)
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			command := e.Command
			if command == "" {
				command = "unbound"
			}
			m.commands.WithLabelValues(command, strconv.FormatBool(e.Handled)).Inc()
		},
		OnGuardEngage: func(_ context.Context, e *domain.GuardEvent) {
			m.inFlight.WithLabelValues(e.Action).Inc()
		},
		OnGuardRelease: func(_ context.Context, e *domain.GuardEvent) {
			m.guards.WithLabelValues(e.Action, string(e.Outcome)).Inc()
			// Late rejections arrive after the guard already released.
			if e.Outcome == domain.GuardLateRejected {
				return
			}
			m.inFlight.WithLabelValues(e.Action).Dec()
			m.guardHold.WithLabelValues(e.Action).Observe(e.Held.Seconds())
		},
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
