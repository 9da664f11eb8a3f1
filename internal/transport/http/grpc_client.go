package httpserver

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/muscatbay/meterbalance/internal/rpc/balancev1"
)

var _ BalanceClient = balancev1.BalanceServiceClient(nil)

// BalanceClient is the small subset of the gRPC client we need, to keep tests simple.
type BalanceClient interface {
	GetReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListMonths(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

func parseOptionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
