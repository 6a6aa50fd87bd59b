package middleware

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dsmrflow_http_requests_total",
		Help: "Number of HTTP requests by path and status.",
	}, []string{"path", "status"})

	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dsmrflow_http_request_duration_seconds",
		Help:    "HTTP request latency by path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		requests.WithLabelValues(r.URL.Path, http.StatusText(rec.status)).Inc()
		latency.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
