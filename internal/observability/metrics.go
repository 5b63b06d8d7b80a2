package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of the dashboard.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	clinicCalls   *prometheus.CounterVec
	sessionsSwept prometheus.Counter
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Requests that ended in an application error, by error code.",
		}, []string{"route", "method", "code"}),
		clinicCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_api_requests_total",
			Help: "Calls to the clinic REST API, by resource, method and outcome.",
		}, []string{"resource", "method", "outcome"}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_sessions_swept_total",
			Help: "Expired sessions removed by the sweeper.",
		}),
	}
	reg.MustRegister(
		m.requests, m.duration, m.errors, m.clinicCalls, m.sessionsSwept,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest counts a served request and observes its latency.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordClinicCall counts one outbound clinic API request.
func (m *Metrics) RecordClinicCall(resource, method, outcome string) {
	if m == nil {
		return
	}
	m.clinicCalls.WithLabelValues(resource, method, outcome).Inc()
}

// RecordSweep counts purged sessions.
func (m *Metrics) RecordSweep(purged int) {
	if m == nil || purged <= 0 {
		return
	}
	m.sessionsSwept.Add(float64(purged))
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
