// Package balancev1 holds the gRPC contract of meterbalance.v1.BalanceService.
//
// Messages are google.protobuf.Struct values, so the descriptor below is
// maintained by hand instead of generated. The schema lives in
// proto/meterbalance/v1/balance.proto.
package balancev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "meterbalance.v1.BalanceService"

	GetReportFullMethodName  = "/" + ServiceName + "/GetReport"
	ListMonthsFullMethodName = "/" + ServiceName + "/ListMonths"
)

// BalanceServiceServer is the server API for BalanceService.
type BalanceServiceServer interface {
	GetReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMonths(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedBalanceServiceServer can be embedded for forward compatibility.
type UnimplementedBalanceServiceServer struct{}

func (UnimplementedBalanceServiceServer) GetReport(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetReport not implemented")
}

func (UnimplementedBalanceServiceServer) ListMonths(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMonths not implemented")
}

func RegisterBalanceServiceServer(s grpc.ServiceRegistrar, srv BalanceServiceServer) {
	s.RegisterService(&BalanceService_ServiceDesc, srv)
}

func unaryHandler(
	fullMethod string,
	call func(BalanceServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BalanceServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BalanceServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// BalanceService_ServiceDesc is the grpc.ServiceDesc for BalanceService.
var BalanceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BalanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetReport",
			Handler:    unaryHandler(GetReportFullMethodName, BalanceServiceServer.GetReport),
		},
		{
			MethodName: "ListMonths",
			Handler:    unaryHandler(ListMonthsFullMethodName, BalanceServiceServer.ListMonths),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meterbalance/v1/balance.proto",
}

// BalanceServiceClient is the client API for BalanceService.
type BalanceServiceClient interface {
	GetReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListMonths(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type balanceServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBalanceServiceClient(cc grpc.ClientConnInterface) BalanceServiceClient {
	return &balanceServiceClient{cc: cc}
}

func (c *balanceServiceClient) GetReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetReportFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *balanceServiceClient) ListMonths(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListMonthsFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
