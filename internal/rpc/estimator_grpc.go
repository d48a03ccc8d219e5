package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "aero.v1.Estimator"

const (
	Estimator_Evaluate_FullMethodName     = "/aero.v1.Estimator/Evaluate"
	Estimator_EvaluateBody_FullMethodName = "/aero.v1.Estimator/EvaluateBody"
	Estimator_ListBodies_FullMethodName   = "/aero.v1.Estimator/ListBodies"
	Estimator_AddBody_FullMethodName      = "/aero.v1.Estimator/AddBody"
	Estimator_RemoveBody_FullMethodName   = "/aero.v1.Estimator/RemoveBody"
)

// EstimatorServer is the server API for the Estimator service. Requests and
// responses are google.protobuf.Struct documents.
type EstimatorServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateBody(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListBodies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddBody(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveBody(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(EstimatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EstimatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EstimatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Estimator_ServiceDesc is the grpc.ServiceDesc for the Estimator service.
var Estimator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EstimatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    unaryHandler(Estimator_Evaluate_FullMethodName, EstimatorServer.Evaluate),
		},
		{
			MethodName: "EvaluateBody",
			Handler:    unaryHandler(Estimator_EvaluateBody_FullMethodName, EstimatorServer.EvaluateBody),
		},
		{
			MethodName: "ListBodies",
			Handler:    unaryHandler(Estimator_ListBodies_FullMethodName, EstimatorServer.ListBodies),
		},
		{
			MethodName: "AddBody",
			Handler:    unaryHandler(Estimator_AddBody_FullMethodName, EstimatorServer.AddBody),
		},
		{
			MethodName: "RemoveBody",
			Handler:    unaryHandler(Estimator_RemoveBody_FullMethodName, EstimatorServer.RemoveBody),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aero/v1/estimator.proto",
}

// RegisterEstimatorServer registers srv on s.
func RegisterEstimatorServer(s grpc.ServiceRegistrar, srv EstimatorServer) {
	s.RegisterService(&Estimator_ServiceDesc, srv)
}

// EstimatorClient is the client API for the Estimator service.
type EstimatorClient struct {
	cc grpc.ClientConnInterface
}

// NewEstimatorClient wraps a client connection.
func NewEstimatorClient(cc grpc.ClientConnInterface) *EstimatorClient {
	return &EstimatorClient{cc: cc}
}

func (c *EstimatorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate runs an inline scenario document.
func (c *EstimatorClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Estimator_Evaluate_FullMethodName, in, opts...)
}

// EvaluateBody evaluates a stored body: {"id": ..., "elapsed_s": ...}.
func (c *EstimatorClient) EvaluateBody(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Estimator_EvaluateBody_FullMethodName, in, opts...)
}

// ListBodies lists stored bodies.
func (c *EstimatorClient) ListBodies(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Estimator_ListBodies_FullMethodName, in, opts...)
}

// AddBody stores a scenario: {"id": ..., "scenario": {...}}.
func (c *EstimatorClient) AddBody(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Estimator_AddBody_FullMethodName, in, opts...)
}

// RemoveBody deletes a stored body: {"id": ...}.
func (c *EstimatorClient) RemoveBody(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Estimator_RemoveBody_FullMethodName, in, opts...)
}
