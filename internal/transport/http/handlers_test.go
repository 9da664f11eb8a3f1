package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/muscatbay/meterbalance/internal/rpc/balancev1"
)

type fakeClient struct {
	resp  *structpb.Struct
	err   error
	req   *structpb.Struct
	calls int
}

func (f *fakeClient) GetReport(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	f.req = in
	f.calls++
	return f.resp, f.err
}

func (f *fakeClient) ListMonths(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	f.req = in
	f.calls++
	return f.resp, f.err
}

func mustStruct(t *testing.T, v map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(v)
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	return s
}

func serve(srv http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) apiErrorJSON {
	t.Helper()
	var e apiErrorJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal error body %q: %v", rr.Body.String(), err)
	}
	return e
}

func TestHTTP_Report_OK_RelaysPayload(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{resp: mustStruct(t, map[string]any{
		"utility": "water",
		"balance": map[string]any{"lossPct": 15.0},
	})}
	srv := New(fc)

	rr := serve(srv, http.MethodGet, "/api/water/report?start=Jan-25&end=Mar-25&zone=Zone_03_(A)&type=Retail&top=5")
	if got, want := rr.Code, http.StatusOK; got != want {
		t.Fatalf("status=%d want %d, body=%s", got, want, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}

	var body struct {
		Utility string `json:"utility"`
		Balance struct {
			LossPct float64 `json:"lossPct"`
		} `json:"balance"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Utility != "water" || body.Balance.LossPct != 15 {
		t.Fatalf("unexpected body: %+v", body)
	}

	got, err := balancev1.ParseReportRequest(fc.req)
	if err != nil {
		t.Fatalf("parse forwarded request: %v", err)
	}
	want := balancev1.ReportRequest{Utility: "water", Start: "Jan-25", End: "Mar-25", Zone: "Zone_03_(A)", Type: "Retail", Top: 5}
	if got != want {
		t.Fatalf("forwarded=%+v want %+v", got, want)
	}
}

func TestHTTP_Report_ValidatesQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		target string
	}{
		{"bad start", "/api/water/report?start=not-a-month"},
		{"bad end", "/api/water/report?end=Foo-25"},
		{"bad top", "/api/water/report?top=ten"},
		{"negative top", "/api/water/report?top=-1"},
	}
	for _, c := range cases {
		fc := &fakeClient{}
		rr := serve(New(fc), http.MethodGet, c.target)
		if got, want := rr.Code, http.StatusBadRequest; got != want {
			t.Fatalf("%s: status=%d want %d", c.name, got, want)
		}
		if got, want := decodeAPIError(t, rr).Code, "invalid_argument"; got != want {
			t.Fatalf("%s: code=%q want %q", c.name, got, want)
		}
		if fc.calls != 0 {
			t.Fatalf("%s: upstream called %d times", c.name, fc.calls)
		}
	}
}

func TestHTTP_UnknownUtility(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	rr := serve(New(fc), http.MethodGet, "/api/gas/report")
	if got, want := rr.Code, http.StatusNotFound; got != want {
		t.Fatalf("status=%d want %d", got, want)
	}
	if fc.calls != 0 {
		t.Fatalf("upstream called %d times", fc.calls)
	}
}

func TestHTTP_MapsUpstreamErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code    codes.Code
		status  int
		apiCode string
	}{
		{codes.InvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{codes.NotFound, http.StatusNotFound, "not_found"},
		{codes.DeadlineExceeded, http.StatusGatewayTimeout, "upstream_timeout"},
		{codes.Unavailable, http.StatusBadGateway, "upstream_error"},
		{codes.Internal, http.StatusBadGateway, "upstream_error"},
	}
	for _, c := range cases {
		srv := New(&fakeClient{err: status.Error(c.code, "upstream says no")})
		rr := serve(srv, http.MethodGet, "/api/electricity/report")
		if got := rr.Code; got != c.status {
			t.Fatalf("%s: status=%d want %d", c.code, got, c.status)
		}
		e := decodeAPIError(t, rr)
		if e.Code != c.apiCode {
			t.Fatalf("%s: code=%q want %q", c.code, e.Code, c.apiCode)
		}
		if e.RequestID == "" || e.RequestID != rr.Header().Get("X-Request-Id") {
			t.Fatalf("%s: requestId=%q header=%q", c.code, e.RequestID, rr.Header().Get("X-Request-Id"))
		}
	}
}

func TestHTTP_Months(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{resp: mustStruct(t, map[string]any{
		"utility": "stp",
		"months":  []any{"Jul-24", "Aug-24"},
	})}
	rr := serve(New(fc), http.MethodGet, "/api/stp/months")
	if got, want := rr.Code, http.StatusOK; got != want {
		t.Fatalf("status=%d want %d", got, want)
	}
	var body struct {
		Months []string `json:"months"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Months) != 2 || body.Months[0] != "Jul-24" {
		t.Fatalf("months=%v", body.Months)
	}
	got, err := balancev1.ParseMonthsRequest(fc.req)
	if err != nil || got.Utility != "stp" {
		t.Fatalf("forwarded=%+v err=%v", got, err)
	}
}

func TestHTTP_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := New(&fakeClient{})

	rr := serve(srv, http.MethodGet, "/api/water/unknown")
	if got, want := rr.Code, http.StatusNotFound; got != want {
		t.Fatalf("status=%d want %d", got, want)
	}
	if got, want := decodeAPIError(t, rr).Code, "not_found"; got != want {
		t.Fatalf("code=%q want %q", got, want)
	}

	rr = serve(srv, http.MethodPost, "/api/water/report")
	if got, want := rr.Code, http.StatusMethodNotAllowed; got != want {
		t.Fatalf("status=%d want %d", got, want)
	}
	if got, want := decodeAPIError(t, rr).Code, "method_not_allowed"; got != want {
		t.Fatalf("code=%q want %q", got, want)
	}
}

func TestHTTP_Healthz(t *testing.T) {
	t.Parallel()

	rr := serve(New(&fakeClient{}), http.MethodGet, "/healthz")
	if got, want := rr.Code, http.StatusOK; got != want {
		t.Fatalf("status=%d want %d", got, want)
	}
}

func TestHTTP_Index(t *testing.T) {
	t.Parallel()

	rr := serve(New(&fakeClient{}), http.MethodGet, "/")
	if got, want := rr.Code, http.StatusOK; got != want {
		t.Fatalf("status=%d want %d", got, want)
	}
	if ct := rr.Header().Get("Content-Type"); ct == "" {
		t.Fatalf("expected content-type")
	}
	if body := rr.Body.String(); !strings.Contains(body, "/api/{utility}/report") {
		t.Fatalf("expected route listing in body")
	}
}

func TestRouteLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/":                     "index",
		"/api/{utility}/report": "api_report",
		"/api/{utility}/months": "api_months",
		"/healthz":              "healthz",
		"/metrics":              "metrics",
		"":                      "other",
		"/api/*":                "other",
	}
	for in, want := range cases {
		if got := routeLabel(in); got != want {
			t.Fatalf("routeLabel(%q)=%q want %q", in, got, want)
		}
	}
}
