package grpcserver

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	grpcHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_server_handled_total",
			Help: "Total number of unary RPCs completed by the server.",
		},
		[]string{"method", "code"},
	)
	grpcHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_server_handling_seconds",
			Help:    "Unary RPC latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// UnaryInterceptor records metrics and logs for every unary call and turns
// handler panics into Internal errors.
func UnaryInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("method", info.FullMethod).Msg("panic in handler")
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			dur := time.Since(start)
			grpcHandledTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
			grpcHandlingSeconds.WithLabelValues(info.FullMethod).Observe(dur.Seconds())

			ev := log.Info()
			if code != codes.OK {
				ev = log.Warn()
			}
			ev.Str("method", info.FullMethod).
				Str("code", code.String()).
				Dur("duration", dur).
				Msg("rpc")
		}()
		return handler(ctx, req)
	}
}
