// Package httpmetrics implements the HTTP request-duration middleware for
// the research service's job-lifecycle API.
//
// A request_duration_seconds histogram labeled by endpoint/method/status,
// exposed as a chi middleware over an injectable prometheus.Registerer so
// tests can isolate metric state.
package httpmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors the service exposes.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	jobsTotal       *prometheus.CounterVec
	webCallsTotal   prometheus.Counter
}

// NewMetricsWithRegistry registers every collector against reg, so callers
// (tests, or a dedicated metrics registry in main) control collision
// behavior explicitly.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "research_http_request_duration_seconds",
			Help: "HTTP request duration in seconds.",
		}, []string{"endpoint", "method", "status"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "research_jobs_total",
			Help: "Research jobs created, partitioned by terminal status.",
		}, []string{"status"}),
		webCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "research_worker_web_calls_total",
			Help: "Outbound web calls issued by workers across all jobs.",
		}),
	}
	reg.MustRegister(m.requestDuration, m.jobsTotal, m.webCallsTotal)
	return m
}

// NewMetrics registers against the default global Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// ObserveJob records a job's terminal status, e.g. "completed" or "failed".
func (m *Metrics) ObserveJob(status string) {
	m.jobsTotal.WithLabelValues(status).Inc()
}

// AddWebCalls increments the cumulative outbound web-call counter.
func (m *Metrics) AddWebCalls(n int) {
	if n > 0 {
		m.webCallsTotal.Add(float64(n))
	}
}

// HTTPMetrics wraps an http.Handler to observe request duration labeled by
// route pattern, method, and status code.
func HTTPMetrics(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			endpoint := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				endpoint = rctx.RoutePattern()
			}
			m.requestDuration.WithLabelValues(endpoint, r.Method, strconv.Itoa(ww.Status())).
				Observe(time.Since(start).Seconds())
		})
	}
}
