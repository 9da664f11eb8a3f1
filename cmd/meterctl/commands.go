package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/muscatbay/meterbalance/internal/bootstrap"
	"github.com/muscatbay/meterbalance/internal/config"
	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/export/influx"
	"github.com/muscatbay/meterbalance/internal/repo/csvrepo"
	"github.com/muscatbay/meterbalance/internal/repo/sqliterepo"
	"github.com/muscatbay/meterbalance/internal/service"
)

func utilityFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "utility",
		Aliases:  []string{"u"},
		Usage:    "Utility (water, electricity, stp)",
		Required: required,
	}
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Usage: "First month, e.g. Jan-25 (default: first available)"},
		&cli.StringFlag{Name: "end", Usage: "Last month, e.g. Mar-25 (default: last available)"},
	}
}

// =============================================================================
// REPORT COMMAND
// =============================================================================

func reportCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print the dashboard report for a utility and month range",
		Flags: append(rangeFlags(),
			utilityFlag(true),
			&cli.StringFlag{Name: "zone", Usage: "Restrict to one zone code"},
			&cli.StringFlag{Name: "type", Usage: "Restrict to one usage type"},
			&cli.IntFlag{Name: "top", Usage: "Number of top consumers (0 = configured default)"},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
		),
		Action: func(c *cli.Context) error {
			return withService(cfg, func(svc *service.ReportService, _ zerolog.Logger) error {
				rep, err := svc.Report(c.Context, service.ReportRequest{
					Utility: c.String("utility"),
					Start:   c.String("start"),
					End:     c.String("end"),
					Zone:    c.String("zone"),
					Type:    c.String("type"),
					TopN:    c.Int("top"),
				})
				if err != nil {
					return err
				}
				switch c.String("format") {
				case "json":
					return writeJSON(c.App.Writer, rep)
				case "table":
					return renderReport(c.App.Writer, rep)
				default:
					return fmt.Errorf("unknown format %q", c.String("format"))
				}
			})
		},
	}
}

// =============================================================================
// MONTHS COMMAND
// =============================================================================

func monthsCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "months",
		Usage: "List the ordered month index of a utility",
		Flags: []cli.Flag{utilityFlag(true)},
		Action: func(c *cli.Context) error {
			return withService(cfg, func(svc *service.ReportService, _ zerolog.Logger) error {
				months, err := svc.Months(c.Context, c.String("utility"))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.App.Writer, strings.Join(domain.Labels(months), " "))
				return err
			})
		},
	}
}

// =============================================================================
// IMPORT COMMAND
// =============================================================================

func importCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Load CSV catalogs (or the built-in dataset) into the sqlite store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "CSV directory to import (default: built-in dataset)",
			},
		},
		Action: func(c *cli.Context) error {
			log, err := bootstrap.Logger(cfg, "meterctl")
			if err != nil {
				return err
			}
			src, err := openCSV(c.String("from"))
			if src == nil {
				return err
			}
			if err != nil {
				log.Warn().Err(err).Msg("skipped invalid rows")
			}

			store, err := sqliterepo.Open(cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := importCatalogs(c.Context, src, store)
			if err != nil {
				return err
			}
			log.Info().Int("utilities", n).Str("path", cfg.SQLitePath).Msg("import complete")

			imports, err := store.Imports(c.Context)
			if err != nil {
				return err
			}
			return renderImports(c.App.Writer, imports)
		},
	}
}

func openCSV(dir string) (*csvrepo.Repo, error) {
	if dir == "" {
		return csvrepo.NewFallback()
	}
	return csvrepo.NewFromDir(dir)
}

// importCatalogs copies every catalog in src into dst and returns how many
// utilities were written.
func importCatalogs(ctx context.Context, src *csvrepo.Repo, dst *sqliterepo.Store) (int, error) {
	n := 0
	for _, u := range src.Utilities() {
		cat, err := src.Load(ctx, u)
		if err != nil {
			return n, err
		}
		if err := dst.Save(ctx, cat); err != nil {
			return n, fmt.Errorf("save %s: %w", u, err)
		}
		n++
	}
	return n, nil
}

// =============================================================================
// EXPORT COMMAND
// =============================================================================

func exportCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write monthly consumption and balance series to InfluxDB",
		Flags: append(rangeFlags(),
			&cli.StringFlag{
				Name:    "utility",
				Aliases: []string{"u"},
				Usage:   "Utility to export (default: all)",
			},
			&cli.StringFlag{
				Name:        "influx-url",
				Value:       cfg.Influx.URL,
				EnvVars:     []string{"INFLUXDB_URL"},
				Destination: &cfg.Influx.URL,
			},
			&cli.StringFlag{
				Name:        "influx-org",
				Value:       cfg.Influx.Org,
				EnvVars:     []string{"INFLUXDB_ORG"},
				Destination: &cfg.Influx.Org,
			},
			&cli.StringFlag{
				Name:        "influx-bucket",
				Value:       cfg.Influx.Bucket,
				EnvVars:     []string{"INFLUXDB_BUCKET"},
				Destination: &cfg.Influx.Bucket,
			},
		),
		Action: func(c *cli.Context) error {
			if !cfg.Influx.Enabled() {
				return influx.ErrNotConfigured
			}
			utilities := domain.Utilities
			if u := c.String("utility"); u != "" {
				parsed, err := domain.ParseUtility(u)
				if err != nil {
					return err
				}
				utilities = []domain.Utility{parsed}
			}

			return withService(cfg, func(svc *service.ReportService, log zerolog.Logger) error {
				sink, err := influx.Dial(c.Context, influx.Options{
					URL:    cfg.Influx.URL,
					Org:    cfg.Influx.Org,
					Token:  cfg.Influx.Token,
					Bucket: cfg.Influx.Bucket,
				}, log)
				if err != nil {
					return err
				}
				defer sink.Close()

				total := 0
				for _, u := range utilities {
					rep, err := svc.Report(c.Context, service.ReportRequest{
						Utility: string(u),
						Start:   c.String("start"),
						End:     c.String("end"),
					})
					if err != nil {
						return err
					}
					n, err := sink.Export(c.Context, rep)
					if err != nil {
						return err
					}
					total += n
				}
				_, err = fmt.Fprintf(c.App.Writer, "exported %d points\n", total)
				return err
			})
		},
	}
}

// withService opens the configured catalog, builds the report service and
// runs fn.
func withService(cfg *config.Config, fn func(*service.ReportService, zerolog.Logger) error) error {
	log, err := bootstrap.Logger(cfg, "meterctl")
	if err != nil {
		return err
	}
	catalog, err := bootstrap.OpenCatalog(cfg, log)
	if err != nil {
		return err
	}
	defer catalog.Close()

	opts, err := cfg.ServiceOptions()
	if err != nil {
		return err
	}
	return fn(service.NewReportService(catalog, opts), log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
