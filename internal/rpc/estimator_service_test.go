package rpc

import (
	"context"
	"math"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/aero-overlay/internal/observability"
	"github.com/signalsfoundry/aero-overlay/kb"
)

type testServer struct {
	client    *EstimatorClient
	conn      *grpc.ClientConn
	store     *kb.BodyStore
	collector *observability.ServerCollector
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	collector, err := observability.NewServerCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewServerCollector: %v", err)
	}
	store := kb.NewBodyStore(kb.WithCountRecorder(collector))
	server, _ := NewGRPCServer(NewEstimatorService(store, nil, nil), nil, collector)

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testServer{
		client:    NewEstimatorClient(conn),
		conn:      conn,
		store:     store,
		collector: collector,
	}
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("structpb.NewStruct: %v", err)
	}
	return s
}

func number(t *testing.T, s *structpb.Struct, path ...string) float64 {
	t.Helper()
	cur := s
	for i, key := range path {
		v, ok := cur.GetFields()[key]
		if !ok {
			t.Fatalf("missing field %v", path[:i+1])
		}
		if i == len(path)-1 {
			return v.GetNumberValue()
		}
		cur = v.GetStructValue()
	}
	return 0
}

func TestEvaluateInlineScenario(t *testing.T) {
	ts := startTestServer(t)
	ctx := context.Background()

	req := mustStruct(t, map[string]interface{}{
		"flow": map[string]interface{}{"airspeed_ms": 30.0},
	})
	resp, err := ts.client.Evaluate(ctx, req)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if q := number(t, resp, "flow", "dynamic_pressure"); math.Abs(q-551.25) > 0.5 {
		t.Fatalf("dynamic_pressure = %v, want ~551.25", q)
	}
	if cl := number(t, resp, "coefficients", "cl"); math.Abs(cl) > 1e-9 {
		t.Fatalf("cl = %v, want 0 for head-on flow", cl)
	}
	if drag := number(t, resp, "forces", "drag"); drag <= 0 {
		t.Fatalf("drag = %v, want > 0", drag)
	}
	if got := testutil.ToFloat64(ts.collector.RPCRequests.WithLabelValues("Estimator", "Evaluate", "OK")); got != 1 {
		t.Fatalf("aero_rpc_requests_total = %v, want 1", got)
	}
}

func TestEvaluateRejectsInvalidScenario(t *testing.T) {
	ts := startTestServer(t)

	req := mustStruct(t, map[string]interface{}{
		"flow": map[string]interface{}{"warp_factor": 9.0},
	})
	_, err := ts.client.Evaluate(context.Background(), req)
	if code := status.Code(err); code != codes.InvalidArgument {
		t.Fatalf("Evaluate code = %v, want InvalidArgument (err=%v)", code, err)
	}
}

func TestBodyLifecycle(t *testing.T) {
	ts := startTestServer(t)
	ctx := context.Background()

	add := mustStruct(t, map[string]interface{}{
		"id": "glider",
		"scenario": map[string]interface{}{
			"flow": map[string]interface{}{"airspeed_ms": 25.0},
			"mesh": map[string]interface{}{
				"box": map[string]interface{}{"size": []interface{}{2.0, 1.0, 0.5}},
			},
			"animation": map[string]interface{}{"pitch_rate_dps": 2.0},
		},
	})
	added, err := ts.client.AddBody(ctx, add)
	if err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	if got := added.GetFields()["name"].GetStringValue(); got != "glider" {
		t.Fatalf("AddBody name = %q, want id fallback glider", got)
	}
	if got := testutil.ToFloat64(ts.collector.Bodies); got != 1 {
		t.Fatalf("aero_bodies = %v, want 1", got)
	}

	if _, err := ts.client.AddBody(ctx, add); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("duplicate AddBody code = %v, want AlreadyExists", status.Code(err))
	}

	list, err := ts.client.ListBodies(ctx, &structpb.Struct{})
	if err != nil {
		t.Fatalf("ListBodies: %v", err)
	}
	bodies := list.GetFields()["bodies"].GetListValue().GetValues()
	if len(bodies) != 1 || bodies[0].GetStructValue().GetFields()["id"].GetStringValue() != "glider" {
		t.Fatalf("ListBodies = %v, want [glider]", list)
	}

	out, err := ts.client.EvaluateBody(ctx, mustStruct(t, map[string]interface{}{"id": "glider", "elapsed_s": 5.0}))
	if err != nil {
		t.Fatalf("EvaluateBody: %v", err)
	}
	if got := number(t, out, "geometry", "triangles"); got != 12 {
		t.Fatalf("triangles = %v, want 12", got)
	}
	// 5 s at 2 deg/s adds 10 deg of pitch, which shows up as alpha.
	if alpha := number(t, out, "angles", "alpha_deg"); math.Abs(alpha-10) > 1e-6 {
		t.Fatalf("alpha_deg = %v, want 10", alpha)
	}
	if got := out.GetFields()["id"].GetStringValue(); got != "glider" {
		t.Fatalf("EvaluateBody id = %q, want glider", got)
	}

	if _, err := ts.client.RemoveBody(ctx, mustStruct(t, map[string]interface{}{"id": "glider"})); err != nil {
		t.Fatalf("RemoveBody: %v", err)
	}
	_, err = ts.client.EvaluateBody(ctx, mustStruct(t, map[string]interface{}{"id": "glider"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("EvaluateBody after remove code = %v, want NotFound", status.Code(err))
	}
}

func TestEvaluateBodyValidation(t *testing.T) {
	ts := startTestServer(t)
	ctx := context.Background()

	if _, err := ts.client.EvaluateBody(ctx, &structpb.Struct{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("missing id code = %v, want InvalidArgument", status.Code(err))
	}
	req := mustStruct(t, map[string]interface{}{"id": "x", "elapsed_s": -1.0})
	if _, err := ts.client.EvaluateBody(ctx, req); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("negative elapsed code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestRequestIDEchoedInHeader(t *testing.T) {
	ts := startTestServer(t)

	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDMetadataKey, "req-123")
	var header metadata.MD
	if _, err := ts.client.ListBodies(ctx, &structpb.Struct{}, grpc.Header(&header)); err != nil {
		t.Fatalf("ListBodies: %v", err)
	}
	if got := header.Get(RequestIDMetadataKey); len(got) != 1 || got[0] != "req-123" {
		t.Fatalf("x-request-id header = %v, want [req-123]", got)
	}
}

func TestHealthServing(t *testing.T) {
	ts := startTestServer(t)

	resp, err := healthpb.NewHealthClient(ts.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v, want SERVING", resp.GetStatus())
	}
}

func TestServiceWithoutStore(t *testing.T) {
	svc := NewEstimatorService(nil, nil, nil)
	if _, err := svc.ListBodies(context.Background(), nil); status.Code(err) != codes.Internal {
		t.Fatalf("ListBodies without store code = %v, want Internal", status.Code(err))
	}
	if _, err := svc.Evaluate(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("Evaluate(nil) code = %v, want InvalidArgument", status.Code(err))
	}
}
