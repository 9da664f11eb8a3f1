package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/muscatbay/meterbalance/internal/bootstrap"
	"github.com/muscatbay/meterbalance/internal/config"
	"github.com/muscatbay/meterbalance/internal/rpc/balancev1"
	httpserver "github.com/muscatbay/meterbalance/internal/transport/http"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	bootstrap.LoadEnvFile()
	cfg := config.Load()

	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&cfg.GRPCTarget, "grpc", cfg.GRPCTarget, "gRPC target host:port")
	flag.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", cfg.UpstreamTimeout, "per-request gRPC timeout")
	flag.DurationVar(&cfg.GRPCWaitTimeout, "grpc-wait", cfg.GRPCWaitTimeout, "how long to wait for gRPC readiness at start-up")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := bootstrap.Logger(cfg, "gateway")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(cfg.GRPCTarget, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial gRPC %q: %w", cfg.GRPCTarget, err)
	}
	defer conn.Close()

	// Reduce docker-compose race: wait a bit for gRPC to be ready.
	waitForGRPC(ctx, conn, cfg.GRPCWaitTimeout, log)

	client := balancev1.NewBalanceServiceClient(conn)
	srv := httpserver.New(client,
		httpserver.WithLogger(log),
		httpserver.WithUpstreamTimeout(cfg.UpstreamTimeout),
	)

	h := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", cfg.HTTPAddr, err)
	}
	log.Info().Str("addr", cfg.HTTPAddr).Str("grpc_target", cfg.GRPCTarget).Msg("HTTP listening")

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down HTTP")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Shutdown(shutdownCtx)
	}()

	if err := h.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func waitForGRPC(ctx context.Context, conn *grpc.ClientConn, maxWait time.Duration, log zerolog.Logger) {
	if maxWait <= 0 {
		return
	}

	hc := healthpb.NewHealthClient(conn)
	deadline := time.Now().Add(maxWait)

	backoff := 100 * time.Millisecond
	for {
		if ctx.Err() != nil {
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		_, err := hc.Check(reqCtx, &healthpb.HealthCheckRequest{Service: balancev1.ServiceName})
		cancel()
		if err == nil {
			log.Info().Msg("gRPC is ready")
			return
		}

		if time.Now().After(deadline) {
			log.Warn().Err(err).Dur("waited", maxWait).Msg("gRPC not ready; continuing anyway")
			return
		}

		time.Sleep(backoff)
		if backoff < 1*time.Second {
			backoff *= 2
			if backoff > 1*time.Second {
				backoff = 1 * time.Second
			}
		}
	}
}
