// Package service wires configuration, storage, migrations and the HTTP API
// into the persons service process.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/api"
	"github.com/getpup/persons-api/config"
	"github.com/getpup/persons-api/forecast"
	"github.com/getpup/persons-api/lifecycle"
	"github.com/getpup/persons-api/metrics"
	"github.com/getpup/persons-api/store"
	"github.com/getpup/persons-api/store/memory"
	"github.com/getpup/persons-api/store/sqlstore"
)

// DriverMemory selects the in-memory store. The connection string is ignored.
const DriverMemory = config.DriverMemory

// Database is a person store backed by a releasable connection.
type Database interface {
	store.PersonStore
	Close() error
}

// Opener opens a Database for the configured driver.
type Opener func(ctx context.Context, cfg config.Config) (Database, error)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger (default: nil, no logging).
func WithLogger(logger persons.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithOpener replaces the database opener (default: OpenDatabase).
func WithOpener(open Opener) Option {
	return func(s *Service) {
		if open != nil {
			s.open = open
		}
	}
}

// WithSleep replaces the wait between migration attempts.
func WithSleep(sleep lifecycle.SleepFunc) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// WithMetrics enables metrics (default: disabled).
func WithMetrics(enabled bool) Option {
	return func(s *Service) {
		s.metricsEnabled = enabled
	}
}

// Service runs the persons API process.
type Service struct {
	cfg            config.Config
	logger         persons.Logger
	open           Opener
	sleep          lifecycle.SleepFunc
	metricsEnabled bool
	collector      *metrics.Collector

	mu       sync.Mutex
	migrated Database // kept by Migrate when every open yields a fresh database
}

// New validates cfg and creates a Service.
// Configuration errors are returned before anything touches the database.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{cfg: cfg}

	for _, opt := range opts {
		opt(s)
	}

	if s.open == nil {
		s.open = func(ctx context.Context, cfg config.Config) (Database, error) {
			return OpenDatabase(ctx, cfg, s.logger)
		}
	}

	if s.metricsEnabled {
		s.collector = metrics.NewCollector(cfg.Driver)
	}

	return s, nil
}

// OpenDatabase opens the store selected by cfg.Driver.
func OpenDatabase(ctx context.Context, cfg config.Config, logger persons.Logger) (Database, error) {
	if cfg.Driver == DriverMemory {
		return memory.New(), nil
	}

	return sqlstore.Open(ctx, cfg.Driver, cfg.ConnectionString,
		sqlstore.WithTableNames(cfg.PersonsTable, ""),
		sqlstore.WithLogger(logger),
	)
}

// Migrate brings the schema up to date, retrying with capped exponential backoff.
// The migration connection is opened for the run and closed afterwards, except
// for in-memory databases: their migrated handle is kept for Serve.
func (s *Service) Migrate(ctx context.Context) error {
	if !isolated(s.cfg) {
		open := func(ctx context.Context) (lifecycle.MigrationHandle, error) {
			return s.open(ctx, s.cfg)
		}
		return lifecycle.MigrateScoped(ctx, open, s.migrationOptions()...)
	}

	var db Database
	open := func(ctx context.Context) (lifecycle.MigrationHandle, error) {
		opened, err := s.open(ctx, s.cfg)
		if err != nil {
			return nil, err
		}
		db = opened
		return keptHandle{opened}, nil
	}

	if err := lifecycle.MigrateScoped(ctx, open, s.migrationOptions()...); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return err
	}

	s.mu.Lock()
	previous := s.migrated
	s.migrated = db
	s.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

func (s *Service) migrationOptions() []lifecycle.Option {
	opts := []lifecycle.Option{
		lifecycle.WithMaxRetries(s.cfg.MigrationMaxRetries),
		lifecycle.WithInitialDelay(s.cfg.MigrationInitialDelay),
		lifecycle.WithLogger(s.logger),
		lifecycle.WithSleep(s.sleep),
	}
	if s.collector != nil {
		opts = append(opts, lifecycle.WithMetrics(s.collector))
	}
	return opts
}

// isolated reports whether each open yields a separate, empty database.
func isolated(cfg config.Config) bool {
	return cfg.Driver == DriverMemory || sqlstore.IsInMemory(cfg.Driver, cfg.ConnectionString)
}

// keptHandle leaves the database open when the migration scope ends.
type keptHandle struct {
	Database
}

func (keptHandle) Close() error { return nil }

// database returns the handle Serve works on. Isolated databases reuse the
// handle kept by Migrate, migrating first when there is none.
func (s *Service) database(ctx context.Context) (Database, error) {
	if !isolated(s.cfg) {
		return s.open(ctx, s.cfg)
	}

	if db := s.takeMigrated(); db != nil {
		return db, nil
	}
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	if db := s.takeMigrated(); db != nil {
		return db, nil
	}
	return nil, errors.New("migrated database already in use")
}

func (s *Service) takeMigrated() Database {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.migrated
	s.migrated = nil
	return db
}

// Run migrates and then serves the API until ctx is cancelled.
// Returns an error wrapping persons.ErrMigrationFailed without serving if
// the migration cannot be applied.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.HTTPAddr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is cancelled, then shuts down gracefully.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	db, err := s.database(ctx)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			s.warn(ctx, "failed to close database", "error", err)
		}
	}()

	var personStore store.PersonStore = db
	if s.collector != nil {
		personStore = store.NewInstrumented(db, s.collector)
	}

	handler, err := api.New(api.Config{
		Store:          personStore,
		Forecast:       forecast.NewGenerator(s.cfg.ForecastSummaries),
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		Logger:         s.logger,
		InstrumentHTTP: s.metricsEnabled,
		MetricsHandler: s.apiMetricsHandler(),
	})
	if err != nil {
		_ = ln.Close()
		return err
	}

	var metricsServer *metrics.Server
	if s.metricsEnabled && s.cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(s.cfg.MetricsAddr)
		metricsServer.Start()
		s.info(ctx, "metrics server started", "addr", s.cfg.MetricsAddr)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	s.info(ctx, "persons api listening", "addr", ln.Addr().String())

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	s.info(ctx, "shutting down persons api")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.warn(ctx, "http shutdown did not complete", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Err(); err != nil {
			s.warn(ctx, "metrics server failed", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			s.warn(ctx, "metrics shutdown did not complete", "error", err)
		}
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", serveErr)
	}
	return nil
}

// Close releases a database kept by Migrate that Serve has not taken.
func (s *Service) Close() error {
	if db := s.takeMigrated(); db != nil {
		return db.Close()
	}
	return nil
}

// apiMetricsHandler mounts /metrics on the API listener when no separate
// metrics address is configured.
func (s *Service) apiMetricsHandler() http.Handler {
	if !s.metricsEnabled || s.cfg.MetricsAddr != "" {
		return nil
	}
	return metrics.Handler()
}

func (s *Service) info(ctx context.Context, msg string, keyvals ...any) {
	if s.logger != nil {
		s.logger.Info(ctx, msg, keyvals...)
	}
}

func (s *Service) warn(ctx context.Context, msg string, keyvals ...any) {
	if s.logger != nil {
		s.logger.Warn(ctx, msg, keyvals...)
	}
}
