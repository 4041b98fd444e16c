// Package metrics exposes Prometheus counters for limiter decisions, guesses
// and LLM calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	rateLimits     *prometheus.CounterVec
	guesses        *prometheus.CounterVec
	llmRequests    *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// New registers all collectors on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		rateLimits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordwise",
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limit decisions by route and outcome.",
		}, []string{"route", "outcome"}),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordwise",
			Name:      "guesses_total",
			Help:      "Submitted guesses by outcome.",
		}, []string{"outcome"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordwise",
			Name:      "llm_requests_total",
			Help:      "LLM provider calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wordwise",
			Name:      "active_sessions",
			Help:      "Game sessions currently held in memory.",
		}),
	}
	reg.MustRegister(
		m.rateLimits,
		m.guesses,
		m.llmRequests,
		m.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRateLimit implements ratelimit.Observer.
func (m *Metrics) ObserveRateLimit(route string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.rateLimits.WithLabelValues(route, outcome).Inc()
}

// ObserveGuess records a guess outcome: won, lost, continue or an error code.
func (m *Metrics) ObserveGuess(outcome string) {
	m.guesses.WithLabelValues(outcome).Inc()
}

// ObserveLLM records a provider call; outcome is "ok", "error" or "cached".
func (m *Metrics) ObserveLLM(kind, outcome string) {
	m.llmRequests.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
