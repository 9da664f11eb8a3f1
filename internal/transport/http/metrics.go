package httpserver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	grpcUpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_upstream_requests_total",
			Help: "Total number of upstream gRPC calls made by the HTTP gateway.",
		},
		[]string{"method", "code"},
	)
	grpcUpstreamDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_upstream_duration_seconds",
			Help:    "Upstream gRPC call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func observeHTTPRequest(route, method string, status int, dur time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route, method).Observe(dur.Seconds())
}

func observeUpstreamGRPC(method, code string, dur time.Duration) {
	grpcUpstreamRequestsTotal.WithLabelValues(method, code).Inc()
	grpcUpstreamDurationSeconds.WithLabelValues(method).Observe(dur.Seconds())
}

// routeLabel maps a matched chi pattern to a bounded metric label.
func routeLabel(pattern string) string {
	switch pattern {
	case "/":
		return "index"
	case "/api/{utility}/report":
		return "api_report"
	case "/api/{utility}/months":
		return "api_months"
	case "/healthz":
		return "healthz"
	case "/metrics":
		return "metrics"
	default:
		return "other"
	}
}
