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
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/aero-overlay/core"
	"github.com/signalsfoundry/aero-overlay/internal/logging"
	"github.com/signalsfoundry/aero-overlay/internal/observability"
	"github.com/signalsfoundry/aero-overlay/internal/rpc"
	"github.com/signalsfoundry/aero-overlay/kb"
)

// Config holds the server's command-line configuration.
type Config struct {
	ListenAddress  string
	MetricsAddress string
	ScenarioPaths  []string
	Workers        int
	Tracing        observability.TracingConfig
}

// scenarioFlags collects repeated -scenario flags.
type scenarioFlags []string

func (s *scenarioFlags) String() string { return strings.Join(*s, ",") }

func (s *scenarioFlags) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var scenarios scenarioFlags
	grpcAddr := flag.String("grpc-addr", ":50051", "TCP address the estimator gRPC server listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics (empty disables)")
	workers := flag.Int("workers", 1, "geometry reduction workers per evaluation (<0 uses GOMAXPROCS)")
	flag.Var(&scenarios, "scenario", "scenario file to preload as a body (repeatable)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg := Config{
		ListenAddress:  *grpcAddr,
		MetricsAddress: *metricsAddr,
		ScenarioPaths:  scenarios,
		Workers:        *workers,
		Tracing:        observability.TracingConfigFromEnv(),
	}

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := run(stopCtx, cfg, log, lis, prometheus.DefaultRegisterer); err != nil {
		log.Error(ctx, "estimator server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then stops gracefully.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener, reg prometheus.Registerer) error {
	if log == nil {
		log = logging.Noop()
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	serverMetrics, err := observability.NewServerCollector(reg)
	if err != nil {
		return fmt.Errorf("init server metrics: %w", err)
	}
	evalMetrics, err := observability.NewEvaluationCollector(reg)
	if err != nil {
		return fmt.Errorf("init evaluation metrics: %w", err)
	}

	store := kb.NewBodyStore(kb.WithCountRecorder(serverMetrics))
	analyzer := core.DefaultAnalyzer()
	analyzer.Workers = cfg.Workers
	estimator := core.NewEstimator(log,
		core.WithMetricsRecorder(evalMetrics),
		core.WithAnalyzer(analyzer),
	)
	svc := rpc.NewEstimatorService(store, estimator, log)
	if err := svc.LoadScenarios(ctx, cfg.ScenarioPaths); err != nil {
		return fmt.Errorf("preload scenarios: %w", err)
	}

	server, health := rpc.NewGRPCServer(svc, log, serverMetrics,
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		metricsSrv = serveMetrics(cfg.MetricsAddress, serverMetrics, log)
	}

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting estimator gRPC server",
		logging.String("addr", lis.Addr().String()),
		logging.Int("bodies", store.Len()),
	)
	go func() {
		serveErr <- server.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	}

	log.Info(context.Background(), "shutting down estimator server")
	health.Shutdown()
	server.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func serveMetrics(addr string, collector *observability.ServerCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
