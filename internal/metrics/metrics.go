// Package metrics exposes the prometheus collectors recorded by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "formflow"

type Config struct {
	Namespace string
	Buckets   []float64
	Registry  prometheus.Registerer
}

type Option func(*Config)

// WithRegistry registers collectors on registry instead of the default one.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		if registry != nil {
			c.Registry = registry
		}
	}
}

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) {
		if ns != "" {
			c.Namespace = ns
		}
	}
}

// Metrics groups the collectors.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	submissions  *prometheus.CounterVec
	searches     *prometheus.CounterVec
	searchTiming *prometheus.HistogramVec
	sessions     prometheus.Gauge
}

// New registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: namespace,
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   cfg.Buckets,
		}, []string{"route"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "step_transitions_total",
			Help:      "Stepper transitions by form and direction.",
		}, []string{"form", "direction"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "submissions_total",
			Help:      "Wizard submissions by form and outcome.",
		}, []string{"form", "outcome"}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "option_searches_total",
			Help:      "Option searches by field and outcome.",
		}, []string{"field", "outcome"}),
		searchTiming: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "option_search_duration_seconds",
			Help:      "Option search latency by field.",
			Buckets:   cfg.Buckets,
		}, []string{"field"}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_sessions",
			Help:      "Wizard sessions held in memory.",
		}),
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, status).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Transition records a stepper move; direction is forward or back.
func (m *Metrics) Transition(form, direction string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(form, direction).Inc()
}

// Submission records a submit outcome: success, field_errors or transport_error.
func (m *Metrics) Submission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(form, outcome).Inc()
}

// Search records an option search. It matches the options.Hook signature
// once the outcome is converted to a string.
func (m *Metrics) Search(field, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(field, outcome).Inc()
	m.searchTiming.WithLabelValues(field).Observe(elapsed.Seconds())
}

// SessionOpened and SessionClosed track live sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}
