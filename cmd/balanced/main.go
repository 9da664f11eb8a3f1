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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/muscatbay/meterbalance/internal/bootstrap"
	"github.com/muscatbay/meterbalance/internal/config"
	"github.com/muscatbay/meterbalance/internal/rpc/balancev1"
	"github.com/muscatbay/meterbalance/internal/service"
	grpcserver "github.com/muscatbay/meterbalance/internal/transport/grpc"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	bootstrap.LoadEnvFile()
	cfg := config.Load()

	flag.StringVar(&cfg.GRPCAddr, "addr", cfg.GRPCAddr, "gRPC listen address")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address")
	flag.StringVar(&cfg.DataBackend, "backend", cfg.DataBackend, "catalog backend: fallback, csv, sqlite")
	flag.StringVar(&cfg.CSVDir, "csv-dir", cfg.CSVDir, "directory holding <utility>.csv and zones.csv")
	flag.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "path to the sqlite catalog store")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := bootstrap.Logger(cfg, "balanced")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("balanced stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	catalog, err := bootstrap.OpenCatalog(cfg, log)
	if err != nil {
		return err
	}
	defer catalog.Close()

	opts, err := cfg.ServiceOptions()
	if err != nil {
		return err
	}
	svc := service.NewReportService(catalog, opts)
	api := grpcserver.New(svc, log)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %q: %w", cfg.GRPCAddr, err)
	}
	log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC listening")

	g := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.UnaryInterceptor(log)))
	balancev1.RegisterBalanceServiceServer(g, api)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(balancev1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(g, hs)

	metrics := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down gRPC")
		hs.Shutdown()
		ch := make(chan struct{})
		go func() {
			g.GracefulStop()
			close(ch)
		}()
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			g.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	if err := g.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
