package rpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/aero-overlay/internal/logging"
	"github.com/signalsfoundry/aero-overlay/internal/observability"
)

// NewGRPCServer builds a gRPC server with the request-id, tracing and
// metrics interceptors, and registers svc plus the standard health service.
// collector may be nil.
func NewGRPCServer(svc EstimatorServer, log logging.Logger, collector *observability.ServerCollector, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(interceptors...))

	server := grpc.NewServer(opts...)
	RegisterEstimatorServer(server, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return server, hs
}
