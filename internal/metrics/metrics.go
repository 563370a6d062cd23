// Package metrics exposes Prometheus collectors for the landing service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	waitlistSubmissionsTotal   *prometheus.CounterVec
	botCheckFailuresTotal      *prometheus.CounterVec
	fragmentLoadsTotal         *prometheus.CounterVec
	rateLimitedTotal           *prometheus.CounterVec
	analyticsDroppedTotal      prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		waitlistSubmissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landing_waitlist_submissions_total",
				Help: "Waitlist submissions by form and terminal state.",
			},
			[]string{"form", "state"},
		)

		botCheckFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landing_botcheck_failures_total",
				Help: "Bot-check token acquisitions that failed, by form.",
			},
			[]string{"form"},
		)

		fragmentLoadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landing_fragment_loads_total",
				Help: "Routed fragment loads by route and result.",
			},
			[]string{"route", "result"},
		)

		rateLimitedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landing_rate_limited_total",
				Help: "Requests refused by the admission limiter, by route.",
			},
			[]string{"route"},
		)

		analyticsDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "landing_analytics_dropped_total",
				Help: "Analytics events dropped because the hub buffer was full.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveSubmission records the terminal state of one waitlist submission.
func ObserveSubmission(form, state string) {
	waitlistSubmissionsTotal.WithLabelValues(form, state).Inc()
}

// ObserveBotCheckFailure counts a failed bot check.
func ObserveBotCheckFailure(form string) {
	botCheckFailuresTotal.WithLabelValues(form).Inc()
}

// ObserveFragmentLoad records a routed fragment load; ok selects the result label.
func ObserveFragmentLoad(route string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	fragmentLoadsTotal.WithLabelValues(route, result).Inc()
}

// ObserveRateLimited counts a refused request.
func ObserveRateLimited(route string) {
	rateLimitedTotal.WithLabelValues(route).Inc()
}

// IncAnalyticsDropped counts a dropped analytics event.
func IncAnalyticsDropped() {
	analyticsDroppedTotal.Inc()
}
