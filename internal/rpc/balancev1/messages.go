package balancev1

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

// Request field names.
const (
	FieldUtility = "utility"
	FieldStart   = "start"
	FieldEnd     = "end"
	FieldZone    = "zone"
	FieldType    = "type"
	FieldTop     = "top"
)

var ErrMalformedRequest = errors.New("malformed request")

// ReportRequest is the typed view of a GetReport request Struct.
type ReportRequest struct {
	Utility string
	Start   string
	End     string
	Zone    string
	Type    string
	Top     int
}

func (r ReportRequest) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldUtility: structpb.NewStringValue(r.Utility),
		FieldStart:   structpb.NewStringValue(r.Start),
		FieldEnd:     structpb.NewStringValue(r.End),
		FieldZone:    structpb.NewStringValue(r.Zone),
		FieldType:    structpb.NewStringValue(r.Type),
		FieldTop:     structpb.NewNumberValue(float64(r.Top)),
	}}
}

// ParseReportRequest reads a GetReport request. Absent fields keep their
// zero value; fields of the wrong kind are rejected.
func ParseReportRequest(s *structpb.Struct) (ReportRequest, error) {
	var (
		r    ReportRequest
		errs []error
	)
	for name, dst := range map[string]*string{
		FieldUtility: &r.Utility,
		FieldStart:   &r.Start,
		FieldEnd:     &r.End,
		FieldZone:    &r.Zone,
		FieldType:    &r.Type,
	} {
		v, err := stringField(s, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*dst = v
	}

	top, err := intField(s, FieldTop)
	if err != nil {
		errs = append(errs, err)
	}
	r.Top = top

	if err := errors.Join(errs...); err != nil {
		return ReportRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return r, nil
}

// MonthsRequest is the typed view of a ListMonths request Struct.
type MonthsRequest struct {
	Utility string
}

func (r MonthsRequest) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldUtility: structpb.NewStringValue(r.Utility),
	}}
}

func ParseMonthsRequest(s *structpb.Struct) (MonthsRequest, error) {
	u, err := stringField(s, FieldUtility)
	if err != nil {
		return MonthsRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return MonthsRequest{Utility: u}, nil
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NullValue:
		return "", nil
	}
	return "", fmt.Errorf("field %q must be a string", name)
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("field %q must be an integer", name)
		}
		return int(n), nil
	case *structpb.Value_NullValue:
		return 0, nil
	}
	return 0, fmt.Errorf("field %q must be a number", name)
}
