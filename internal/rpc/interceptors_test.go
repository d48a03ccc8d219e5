package rpc

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/signalsfoundry/aero-overlay/internal/logging"
)

func TestRequestIDInterceptorUsesIncomingMetadata(t *testing.T) {
	interceptor := RequestIDUnaryServerInterceptor(nil)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "abc"))
	info := &grpc.UnaryServerInfo{FullMethod: Estimator_Evaluate_FullMethodName}

	var gotID string
	var gotLogger logging.Logger
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		gotID = logging.RequestIDFromContext(ctx)
		gotLogger = logging.LoggerFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if gotID != "abc" {
		t.Fatalf("request_id = %q, want abc", gotID)
	}
	if gotLogger == nil {
		t.Fatalf("expected a request-scoped logger on the context")
	}
}

func TestRequestIDInterceptorGeneratesID(t *testing.T) {
	interceptor := RequestIDUnaryServerInterceptor(logging.Noop())
	info := &grpc.UnaryServerInfo{FullMethod: Estimator_ListBodies_FullMethodName}

	var gotID string
	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		gotID = logging.RequestIDFromContext(ctx)
		return nil, nil
	})
	if gotID == "" {
		t.Fatalf("expected a generated request_id")
	}
}

func TestTracingInterceptorCreatesSpanAndPassesErrors(t *testing.T) {
	interceptor := TracingUnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: Estimator_Evaluate_FullMethodName}
	boom := errors.New("boom")

	var sawSpan bool
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		sawSpan = trace.SpanFromContext(ctx) != nil
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("interceptor error = %v, want boom", err)
	}
	if !sawSpan {
		t.Fatalf("handler ran without a span in context")
	}
}
