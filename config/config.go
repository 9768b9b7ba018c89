// Package config loads service configuration from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getpup/persons-api/store/sqlstore"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvConnection            = "DB_CONNECTION"
	EnvLegacyConnection      = "AZURE_SQL_CONNECTION"
	EnvDriver                = "DB_DRIVER"
	EnvPersonsTable          = "PERSONS_TABLE"
	EnvHTTPAddr              = "HTTP_ADDR"
	EnvMetricsAddr           = "METRICS_ADDR"
	EnvLogLevel              = "LOG_LEVEL"
	EnvMigrationMaxRetries   = "MIGRATION_MAX_RETRIES"
	EnvMigrationInitialDelay = "MIGRATION_INITIAL_DELAY"
	EnvCORSAllowedOrigins    = "CORS_ALLOWED_ORIGINS"
	EnvForecastSummaries     = "FORECAST_SUMMARIES"
	EnvShutdownTimeout       = "SHUTDOWN_TIMEOUT"
)

// DriverMemory selects the in-process store instead of a database/sql driver.
const DriverMemory = "memory"

// ErrMissingConnectionString indicates no database connection string was configured.
// It is a startup precondition and is never retried.
var ErrMissingConnectionString = errors.New("database connection string is required")

// DefaultSummaries are the forecast summaries used when none are configured.
var DefaultSummaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild", "Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Config is the full service configuration.
type Config struct {
	// ConnectionString is the database DSN (required).
	ConnectionString string

	// Driver is the database/sql driver name (default: postgres).
	Driver string

	// PersonsTable is the persons table name (default: persons).
	PersonsTable string

	// HTTPAddr is the API listen address (default: :8080).
	HTTPAddr string

	// MetricsAddr enables a standalone metrics server when set.
	MetricsAddr string

	// LogLevel is one of debug, info, warn, error (default: info).
	LogLevel string

	// MigrationMaxRetries is the number of retries after the first migration attempt (default: 10).
	MigrationMaxRetries int

	// MigrationInitialDelay is the wait before the first retry (default: 5s).
	MigrationInitialDelay time.Duration

	// CORSAllowedOrigins lists allowed origins (default: *).
	CORSAllowedOrigins []string

	// ForecastSummaries lists weather summaries (default: DefaultSummaries).
	ForecastSummaries []string

	// ShutdownTimeout bounds graceful HTTP shutdown (default: 10s).
	ShutdownTimeout time.Duration
}

// Default returns the configuration with every default applied and no connection string.
func Default() Config {
	return Config{
		Driver:                "postgres",
		PersonsTable:          "persons",
		HTTPAddr:              ":8080",
		LogLevel:              "info",
		MigrationMaxRetries:   10,
		MigrationInitialDelay: 5000 * time.Millisecond,
		CORSAllowedOrigins:    []string{"*"},
		ForecastSummaries:     append([]string(nil), DefaultSummaries...),
		ShutdownTimeout:       10 * time.Second,
	}
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Missing files are skipped; variables already set in the environment win.
// With no arguments it looks for .env in the working directory.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}

// Load reads .env files and then builds the configuration from the environment.
func Load(files ...string) (Config, error) {
	if err := LoadDotEnv(files...); err != nil {
		return Config{}, err
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from a variable lookup function.
// Returns ErrMissingConnectionString if no connection string is set.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg.ConnectionString = get(EnvConnection)
	if cfg.ConnectionString == "" {
		cfg.ConnectionString = get(EnvLegacyConnection)
	}

	if v := get(EnvDriver); v != "" {
		cfg.Driver = v
	}
	if v := get(EnvPersonsTable); v != "" {
		cfg.PersonsTable = v
	}
	if v := get(EnvHTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.MetricsAddr = get(EnvMetricsAddr)
	if v := get(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if v := get(EnvMigrationMaxRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s must be a non-negative integer (got: %s)", EnvMigrationMaxRetries, v)
		}
		cfg.MigrationMaxRetries = n
	}

	if v := get(EnvMigrationInitialDelay); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMigrationInitialDelay, err)
		}
		cfg.MigrationInitialDelay = d
	}

	if v := get(EnvShutdownTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvShutdownTimeout, err)
		}
		cfg.ShutdownTimeout = d
	}

	if v := splitList(get(EnvCORSAllowedOrigins)); len(v) > 0 {
		cfg.CORSAllowedOrigins = v
	}
	if v := splitList(get(EnvForecastSummaries)); len(v) > 0 {
		cfg.ForecastSummaries = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the startup preconditions.
func (c Config) Validate() error {
	if c.ConnectionString == "" {
		return fmt.Errorf("%w: set %s", ErrMissingConnectionString, EnvConnection)
	}
	if c.MigrationMaxRetries < 0 {
		return fmt.Errorf("migration max retries must not be negative")
	}
	if c.MigrationInitialDelay <= 0 {
		return fmt.Errorf("migration initial delay must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.Driver != DriverMemory {
		if _, err := sqlstore.DialectFor(c.Driver); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDriver, err)
		}
	}
	return nil
}

// parseDuration accepts Go durations ("5s") or plain milliseconds ("5000").
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("duration must not be negative (got: %s)", v)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative (got: %s)", v)
	}
	return d, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
