package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/muscatbay/meterbalance/internal/engine"
	"github.com/muscatbay/meterbalance/internal/service"
)

// Data backends.
const (
	BackendFallback = "fallback"
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
)

var validBackends = []string{BackendFallback, BackendCSV, BackendSQLite}

type Config struct {
	// Listeners and upstreams
	GRPCAddr        string
	HTTPAddr        string
	MetricsAddr     string
	GRPCTarget      string
	UpstreamTimeout time.Duration
	GRPCWaitTimeout time.Duration

	// Catalog source
	DataBackend string
	CSVDir      string
	SQLitePath  string

	// Tariffs, kept as text until Validate/ServiceOptions parse them.
	ElectricityRate string
	TankerFee       string
	TSESavingRate   string
	DefaultTopN     int

	LogLevel  string
	LogFormat string

	Influx InfluxConfig
}

type InfluxConfig struct {
	URL    string
	Org    string
	Token  string
	Bucket string
}

// Enabled reports whether an InfluxDB sink is configured.
func (c InfluxConfig) Enabled() bool { return c.URL != "" }

// Load reads configuration from the environment with defaults.
func Load() *Config {
	defaults := engine.DefaultTreatmentTariffs()
	return &Config{
		GRPCAddr:        getEnv("GRPC_ADDR", ":9090"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9091"),
		GRPCTarget:      getEnv("GRPC_TARGET", "localhost:9090"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 5*time.Second),
		GRPCWaitTimeout: getEnvDuration("GRPC_WAIT_TIMEOUT", 10*time.Second),

		DataBackend: getEnv("DATA_BACKEND", BackendFallback),
		CSVDir:      getEnv("CSV_DIR", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/meterbalance.db"),

		ElectricityRate: getEnv("ELECTRICITY_RATE", engine.DefaultElectricityRate.String()),
		TankerFee:       getEnv("TANKER_FEE", defaults.TankerFee.String()),
		TSESavingRate:   getEnv("TSE_SAVING_RATE", defaults.TSESavingRate.String()),
		DefaultTopN:     getEnvInt("DEFAULT_TOP_N", service.DefaultOptions().DefaultTopN),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Influx: InfluxConfig{
			URL:    getEnv("INFLUXDB_URL", ""),
			Org:    getEnv("INFLUXDB_ORG", ""),
			Token:  getEnv("INFLUXDB_TOKEN", ""),
			Bucket: getEnv("INFLUXDB_BUCKET", "meterbalance"),
		},
	}
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var errs []string

	for _, a := range []struct{ name, value string }{
		{"GRPC_ADDR", c.GRPCAddr},
		{"HTTP_ADDR", c.HTTPAddr},
		{"METRICS_ADDR", c.MetricsAddr},
		{"GRPC_TARGET", c.GRPCTarget},
	} {
		if _, _, err := net.SplitHostPort(a.value); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s '%s': %v", a.name, a.value, err))
		}
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid upstream timeout %v: must be positive", c.UpstreamTimeout))
	}

	switch c.DataBackend {
	case BackendFallback:
	case BackendCSV:
		if c.CSVDir == "" {
			errs = append(errs, "CSV_DIR cannot be empty when using csv backend")
		} else if st, err := os.Stat(c.CSVDir); err != nil || !st.IsDir() {
			errs = append(errs, fmt.Sprintf("CSV_DIR '%s' is not a readable directory", c.CSVDir))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH cannot be empty when using sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	for _, t := range []struct{ name, value string }{
		{"ELECTRICITY_RATE", c.ElectricityRate},
		{"TANKER_FEE", c.TankerFee},
		{"TSE_SAVING_RATE", c.TSESavingRate},
	} {
		if _, err := parseTariff(t.value); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s '%s': %v", t.name, t.value, err))
		}
	}

	if c.DefaultTopN < 0 || c.DefaultTopN > service.MaxTopN {
		errs = append(errs, fmt.Sprintf("invalid default top n %d: must be between 0 and %d", c.DefaultTopN, service.MaxTopN))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'json' or 'text'", c.LogFormat))
	}

	if c.Influx.Enabled() {
		if u, err := url.Parse(c.Influx.URL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid InfluxDB URL '%s': %v", c.Influx.URL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid InfluxDB URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
		if c.Influx.Org == "" || c.Influx.Bucket == "" {
			errs = append(errs, "INFLUXDB_ORG and INFLUXDB_BUCKET are required when INFLUXDB_URL is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ServiceOptions converts the tariff and ranking settings for the report service.
func (c *Config) ServiceOptions() (service.Options, error) {
	opts := service.DefaultOptions()
	opts.DefaultTopN = c.DefaultTopN

	var err error
	if opts.ElectricityRate, err = parseTariff(c.ElectricityRate); err != nil {
		return service.Options{}, fmt.Errorf("ELECTRICITY_RATE: %w", err)
	}
	if opts.TreatmentTariffs.TankerFee, err = parseTariff(c.TankerFee); err != nil {
		return service.Options{}, fmt.Errorf("TANKER_FEE: %w", err)
	}
	if opts.TreatmentTariffs.TSESavingRate, err = parseTariff(c.TSESavingRate); err != nil {
		return service.Options{}, fmt.Errorf("TSE_SAVING_RATE: %w", err)
	}
	return opts, nil
}

func parseTariff(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a decimal")
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("must not be negative")
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
