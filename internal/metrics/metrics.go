// Package metrics provides Prometheus metrics for the advisor service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	TurnsTotal       *prometheus.CounterVec
	LLMRequestsTotal *prometheus.CounterVec
	LLMDuration      *prometheus.HistogramVec
	ErrorsTotal      *prometheus.CounterVec
	ProjectProgress  prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_turns_total",
				Help: "Total conversational turns by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		LLMRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_llm_requests_total",
				Help: "Total LLM gateway requests by operation and status.",
			},
			[]string{"op", "status"},
		),
		LLMDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_llm_request_duration_seconds",
				Help:    "LLM gateway request duration by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_errors_total",
				Help: "Total errors by component and type.",
			},
			[]string{"component", "type"},
		),
		ProjectProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_project_progress",
				Help: "Current project progress percentage.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.TurnsTotal)
	reg.MustRegister(m.LLMRequestsTotal)
	reg.MustRegister(m.LLMDuration)
	reg.MustRegister(m.ErrorsTotal)
	reg.MustRegister(m.ProjectProgress)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTurn increments the turn counter.
func (m *Metrics) RecordTurn(kind, outcome string) {
	m.TurnsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordLLMRequest increments the gateway request counter.
func (m *Metrics) RecordLLMRequest(op, status string) {
	m.LLMRequestsTotal.WithLabelValues(op, status).Inc()
}

// ObserveLLMDuration records gateway request duration.
func (m *Metrics) ObserveLLMDuration(op string, seconds float64) {
	m.LLMDuration.WithLabelValues(op).Observe(seconds)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errType string) {
	m.ErrorsTotal.WithLabelValues(component, errType).Inc()
}

// SetProgress updates the progress gauge.
func (m *Metrics) SetProgress(progress int) {
	m.ProjectProgress.Set(float64(progress))
}
