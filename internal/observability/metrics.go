// Package observability defines prometheus metrics for the gateway.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts inbound HTTP requests by route, method and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrelay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// RouteRequestsTotal counts routed requests by operation and outcome
	// (success, fallback, exhausted, rejected, config_error).
	RouteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrelay_route_requests_total",
			Help: "Total number of routed requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// BackendFailuresTotal counts failed backend calls per backend.
	BackendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrelay_backend_failures_total",
			Help: "Total number of failed backend worker calls",
		},
		[]string{"backend"},
	)

	// BackendCallDuration observes successful backend call latency.
	BackendCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genrelay_backend_call_duration_seconds",
			Help:    "Backend worker call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"backend"},
	)

	// HTTPRequestDuration observes inbound request latency per route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genrelay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	// FallbackServedTotal counts degraded results served without any backend.
	FallbackServedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "genrelay_fallback_served_total",
			Help: "Total number of degraded fallback results served",
		},
	)

	// UnhealthyBackends tracks the size of the unhealthy set.
	UnhealthyBackends = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "genrelay_unhealthy_backends",
			Help: "Number of backends currently excluded from selection",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		RouteRequestsTotal,
		BackendFailuresTotal,
		BackendCallDuration,
		HTTPRequestDuration,
		FallbackServedTotal,
		UnhealthyBackends,
	)
}

// HTTPMetricsMiddleware records request counts and duration per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
