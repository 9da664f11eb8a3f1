package influx

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/muscatbay/meterbalance/internal/service"
)

var ErrNotConfigured = errors.New("influxdb sink is not configured")

// PointWriter is the subset of api.WriteAPIBlocking the exporter needs.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

var _ PointWriter = api.WriteAPIBlocking(nil)

type Exporter struct {
	w   PointWriter
	log zerolog.Logger
}

func NewExporter(w PointWriter, log zerolog.Logger) *Exporter {
	return &Exporter{w: w, log: log}
}

// Export writes every point derived from rep and returns how many were sent.
func (e *Exporter) Export(ctx context.Context, rep service.Report) (int, error) {
	points := Points(rep)
	if len(points) == 0 {
		return 0, nil
	}
	if err := e.w.WritePoint(ctx, points...); err != nil {
		return 0, fmt.Errorf("write %d points for %s: %w", len(points), rep.Utility, err)
	}
	e.log.Info().
		Str("utility", string(rep.Utility)).
		Int("points", len(points)).
		Str("start", rep.Period.Start.String()).
		Str("end", rep.Period.End.String()).
		Msg("exported report")
	return len(points), nil
}

type Options struct {
	URL    string
	Org    string
	Token  string
	Bucket string
}

// Sink owns an InfluxDB client and a blocking writer bound to one bucket.
type Sink struct {
	*Exporter
	client influxdb2.Client
}

// Dial connects to InfluxDB and verifies the server is healthy.
func Dial(ctx context.Context, opts Options, log zerolog.Logger) (*Sink, error) {
	if opts.URL == "" {
		return nil, ErrNotConfigured
	}
	client := influxdb2.NewClient(opts.URL, opts.Token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to influxdb %s: %w", opts.URL, err)
	}
	return &Sink{
		Exporter: NewExporter(client.WriteAPIBlocking(opts.Org, opts.Bucket), log),
		client:   client,
	}, nil
}

func (s *Sink) Close() { s.client.Close() }
