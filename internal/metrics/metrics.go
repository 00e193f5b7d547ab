// Package metrics holds the Prometheus collectors exported on /metrics.
//
// A Collector owns its registry so tests can create as many as they need.
// All methods are safe on a nil *Collector, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "docbrain"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	operations *prometheus.CounterVec

	collaboratorCalls    *prometheus.CounterVec
	collaboratorDuration *prometheus.HistogramVec
	breakerState         *prometheus.GaugeVec

	indexChunks  prometheus.Gauge
	expiredEdits prometheus.Counter
}

// NewCollector creates a collector with Go runtime and process metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Brain operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		collaboratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "collaborator_calls_total",
			Help:      "Embedding and generation calls by service and outcome.",
		}, []string{"service", "outcome"}),
		collaboratorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "collaborator_call_duration_seconds",
			Help:      "Embedding and generation call duration in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"service"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per service: 0 closed, 1 half-open, 2 open.",
		}, []string{"service"}),
		indexChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_chunks",
			Help:      "Chunks in the current index snapshot.",
		}),
		expiredEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pending_edits_expired_total",
			Help:      "Pending edits removed by the expiry janitor.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests,
		c.httpDuration,
		c.operations,
		c.collaboratorCalls,
		c.collaboratorDuration,
		c.breakerState,
		c.indexChunks,
		c.expiredEdits,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveOperation records one brain operation.
func (c *Collector) ObserveOperation(operation string, err error) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveCall records one collaborator call.
func (c *Collector) ObserveCall(service string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.collaboratorCalls.WithLabelValues(service, outcome(err)).Inc()
	c.collaboratorDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// SetBreakerState records a circuit breaker transition.
func (c *Collector) SetBreakerState(service string, state int) {
	if c == nil {
		return
	}
	c.breakerState.WithLabelValues(service).Set(float64(state))
}

// SetIndexChunks records the size of the published index.
func (c *Collector) SetIndexChunks(n int) {
	if c == nil {
		return
	}
	c.indexChunks.Set(float64(n))
}

// AddExpiredEdits counts pending edits removed by expiry.
func (c *Collector) AddExpiredEdits(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.expiredEdits.Add(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
