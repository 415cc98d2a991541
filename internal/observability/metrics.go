package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	classifierCalls  *prometheus.CounterVec
	fallbacks        prometheus.Counter
	ticketsCreated   prometheus.Counter
	creationsDropped prometheus.Counter
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP error responses by error code",
		}, []string{"route", "method", "code"}),
		classifierCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_calls_total",
			Help: "Calls to the classification service by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "classifier_fallback_categorizations_total",
			Help: "Tickets categorized by the local keyword fallback",
		}),
		ticketsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tickets_created_total",
			Help: "Tickets persisted",
		}),
		creationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticket_creations_dropped_total",
			Help: "Ticket creation triggers dropped because one was already in flight",
		}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordClassifierCall counts an outbound classifier call.
func (m *Metrics) RecordClassifierCall(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.classifierCalls.WithLabelValues(endpoint, outcome).Inc()
}

// RecordFallback counts a fallback categorization.
func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// RecordTicketCreated counts a persisted ticket.
func (m *Metrics) RecordTicketCreated() {
	if m == nil {
		return
	}
	m.ticketsCreated.Inc()
}

// RecordCreationDropped counts a ticket trigger dropped by the creation guard.
func (m *Metrics) RecordCreationDropped() {
	if m == nil {
		return
	}
	m.creationsDropped.Inc()
}
