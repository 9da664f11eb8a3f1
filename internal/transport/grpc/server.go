package grpcserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/repo"
	"github.com/muscatbay/meterbalance/internal/rpc/balancev1"
	"github.com/muscatbay/meterbalance/internal/service"
)

var _ balancev1.BalanceServiceServer = (*Server)(nil)

// Reporter is the service API the server exposes.
type Reporter interface {
	Report(ctx context.Context, req service.ReportRequest) (service.Report, error)
	Months(ctx context.Context, utility string) ([]domain.Month, error)
}

type Server struct {
	balancev1.UnimplementedBalanceServiceServer
	svc Reporter
	log zerolog.Logger
}

func New(svc Reporter, log zerolog.Logger) *Server {
	return &Server{svc: svc, log: log}
}

func (s *Server) GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in, err := balancev1.ParseReportRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rep, err := s.svc.Report(ctx, service.ReportRequest{
		Utility: in.Utility,
		Start:   in.Start,
		End:     in.End,
		Zone:    in.Zone,
		Type:    in.Type,
		TopN:    in.Top,
	})
	if err != nil {
		return nil, s.statusFromError(ctx, "GetReport", err)
	}
	return toStruct(rep)
}

func (s *Server) ListMonths(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in, err := balancev1.ParseMonthsRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	months, err := s.svc.Months(ctx, in.Utility)
	if err != nil {
		return nil, s.statusFromError(ctx, "ListMonths", err)
	}
	return toStruct(struct {
		Utility string   `json:"utility"`
		Months  []string `json:"months"`
	}{in.Utility, domain.Labels(months)})
}

func (s *Server) statusFromError(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrUnknownUtility):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, repo.ErrCatalogNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	s.log.Error().Err(err).Str("method", method).Msg("request failed")
	return status.Error(codes.Internal, "internal error")
}

// toStruct converts a JSON-tagged value into a Struct message.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}
