package grpcserver

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/repo/csvrepo"
	"github.com/muscatbay/meterbalance/internal/rpc/balancev1"
	"github.com/muscatbay/meterbalance/internal/service"
)

func startServer(t *testing.T) balancev1.BalanceServiceClient {
	t.Helper()

	jan, feb := domain.MustParseMonth("Jan-25"), domain.MustParseMonth("Feb-25")
	repo := csvrepo.New(domain.Catalog{
		Utility: domain.Water,
		Meters: []domain.Meter{
			{ID: "m", AccountNumber: "M", Label: "Main", Level: domain.LevelL1,
				Readings: map[domain.Month]float64{feb: 1000, jan: 800}},
			{ID: "z", AccountNumber: "Z", Label: "Zone", Level: domain.LevelL2,
				Readings: map[domain.Month]float64{jan: 700, feb: 900}},
			{ID: "v", AccountNumber: "V", Label: "Villa", Level: domain.LevelL3,
				Readings: map[domain.Month]float64{jan: 600, feb: 850}},
		},
	})
	return dial(t, service.NewReportService(repo, service.DefaultOptions()))
}

func dial(t *testing.T, svc Reporter) balancev1.BalanceServiceClient {
	t.Helper()
	log := zerolog.Nop()

	lis := bufconn.Listen(1024 * 1024)
	g := grpc.NewServer(grpc.UnaryInterceptor(UnaryInterceptor(log)))
	balancev1.RegisterBalanceServiceServer(g, New(svc, log))
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return balancev1.NewBalanceServiceClient(conn)
}

func TestServer_GetReport(t *testing.T) {
	t.Parallel()

	client := startServer(t)
	resp, err := client.GetReport(context.Background(),
		balancev1.ReportRequest{Utility: "water", Start: "Feb-25", End: "Feb-25"}.Struct())
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	fields := resp.GetFields()
	if got, want := fields["utility"].GetStringValue(), "water"; got != want {
		t.Fatalf("utility=%q want %q", got, want)
	}
	balance := fields["balance"].GetStructValue().GetFields()
	if got, want := balance["lossPct"].GetNumberValue(), 15.0; got != want {
		t.Fatalf("lossPct=%v want %v", got, want)
	}
	trend := fields["trends"].GetStructValue().GetFields()["a1"].GetStructValue().GetFields()
	if got, want := trend["direction"].GetStringValue(), "up"; got != want {
		t.Fatalf("a1 direction=%q want %q", got, want)
	}
	if got, want := trend["magnitudePct"].GetStringValue(), "25.0%"; got != want {
		t.Fatalf("a1 magnitude=%q want %q", got, want)
	}
}

func TestServer_ListMonths_Chronological(t *testing.T) {
	t.Parallel()

	client := startServer(t)
	resp, err := client.ListMonths(context.Background(), balancev1.MonthsRequest{Utility: "water"}.Struct())
	if err != nil {
		t.Fatalf("ListMonths: %v", err)
	}
	months := resp.GetFields()["months"].GetListValue().GetValues()
	if len(months) != 2 || months[0].GetStringValue() != "Jan-25" || months[1].GetStringValue() != "Feb-25" {
		t.Fatalf("months=%v", months)
	}
}

func TestServer_StatusCodes(t *testing.T) {
	t.Parallel()

	client := startServer(t)
	cases := []struct {
		name string
		req  balancev1.ReportRequest
		want codes.Code
	}{
		{"unknown utility", balancev1.ReportRequest{Utility: "gas"}, codes.InvalidArgument},
		{"bad month", balancev1.ReportRequest{Utility: "water", Start: "13-25"}, codes.InvalidArgument},
		{"negative top", balancev1.ReportRequest{Utility: "water", Top: -2}, codes.InvalidArgument},
		{"missing catalog", balancev1.ReportRequest{Utility: "electricity"}, codes.NotFound},
	}
	for _, c := range cases {
		_, err := client.GetReport(context.Background(), c.req.Struct())
		if got := status.Code(err); got != c.want {
			t.Fatalf("%s: code=%s want %s (err=%v)", c.name, got, c.want, err)
		}
	}
}

type panicReporter struct{}

func (panicReporter) Report(context.Context, service.ReportRequest) (service.Report, error) {
	panic("report exploded")
}

func (panicReporter) Months(context.Context, string) ([]domain.Month, error) {
	panic("months exploded")
}

func TestServer_PanicBecomesInternal(t *testing.T) {
	t.Parallel()

	client := dial(t, panicReporter{})
	_, err := client.GetReport(context.Background(), balancev1.ReportRequest{Utility: "water"}.Struct())
	if got, want := status.Code(err), codes.Internal; got != want {
		t.Fatalf("GetReport code=%s want %s (err=%v)", got, want, err)
	}
	_, err = client.ListMonths(context.Background(), balancev1.MonthsRequest{Utility: "water"}.Struct())
	if got, want := status.Code(err), codes.Internal; got != want {
		t.Fatalf("ListMonths code=%s want %s (err=%v)", got, want, err)
	}
}
