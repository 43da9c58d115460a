// Package observability exposes Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bookingsTotal   *prometheus.CounterVec
	quotaReturns    prometheus.Counter
	reconcileDrift  *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samudra_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "samudra_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samudra_booking_transitions_total",
		Help: "Booking status transitions by target status.",
	}, []string{"to_status"})
	quotaReturns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "samudra_quota_returns_total",
		Help: "Quota returned to schedules on cancellation or deletion.",
	})
	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samudra_reconcile_drift_total",
		Help: "Counter drift found by the reconciliation job, by counter kind.",
	}, []string{"kind"})
	registry.MustRegister(requests, duration, bookings, quotaReturns, drift)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		bookingsTotal:   bookings,
		quotaReturns:    quotaReturns,
		reconcileDrift:  drift,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveTransition records a booking status transition.
func (m *Metrics) ObserveTransition(toStatus string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(toStatus).Inc()
}

// ObserveQuotaReturn records a quota return event.
func (m *Metrics) ObserveQuotaReturn() {
	if m == nil {
		return
	}
	m.quotaReturns.Inc()
}

// ObserveDrift records one drifted counter found during reconciliation.
func (m *Metrics) ObserveDrift(kind string) {
	if m == nil {
		return
	}
	m.reconcileDrift.WithLabelValues(kind).Inc()
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)

		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
