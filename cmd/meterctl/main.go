// meterctl - operator CLI for the metering balance engine.
//
// Usage:
//
//	meterctl report --utility water --start Jan-25 --end Mar-25
//	meterctl months --utility electricity
//	meterctl --sqlite ./data/meterbalance.db import --from ./data
//	meterctl export --utility water
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/muscatbay/meterbalance/internal/bootstrap"
	"github.com/muscatbay/meterbalance/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	bootstrap.LoadEnvFile()

	if err := newApp(config.Load()).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:    "meterctl",
		Usage:   "Monthly consumption, loss reconciliation and trends for water, electricity and STP",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "backend",
				Value:       cfg.DataBackend,
				Usage:       "Catalog backend (fallback, csv, sqlite)",
				EnvVars:     []string{"DATA_BACKEND"},
				Destination: &cfg.DataBackend,
			},
			&cli.StringFlag{
				Name:        "csv-dir",
				Value:       cfg.CSVDir,
				Usage:       "Directory holding <utility>.csv and zones.csv",
				EnvVars:     []string{"CSV_DIR"},
				Destination: &cfg.CSVDir,
			},
			&cli.StringFlag{
				Name:        "sqlite",
				Value:       cfg.SQLitePath,
				Usage:       "Path to the sqlite catalog store",
				EnvVars:     []string{"SQLITE_PATH"},
				Destination: &cfg.SQLitePath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Value:       cfg.LogLevel,
				Usage:       "Log level (debug, info, warn, error)",
				EnvVars:     []string{"LOG_LEVEL"},
				Destination: &cfg.LogLevel,
			},
		},
		Before: func(*cli.Context) error {
			// Diagnostics go to stderr in console form; command output owns stdout.
			cfg.LogFormat = "text"
			return cfg.Validate()
		},

		Commands: []*cli.Command{
			reportCommand(cfg),
			monthsCommand(cfg),
			importCommand(cfg),
			exportCommand(cfg),
		},
	}
}
