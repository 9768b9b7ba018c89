// Command personsd serves the persons API.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory:
//
//	DB_CONNECTION=postgres://localhost/persons?sslmode=disable personsd serve
//
// Apply migrations without serving:
//
//	personsd migrate
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/getpup/persons-api/config"
	"github.com/getpup/persons-api/internal/service"
	"github.com/getpup/persons-api/logging"
	"github.com/getpup/persons-api/pkg/version"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	envFiles []string
	logLevel string
	noColor  bool
	metrics  bool
}

func newRootCommand(logOutput io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "personsd",
		Short:         "Persons CRUD API with startup database migrations",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored log output")
	root.PersistentFlags().BoolVar(&opts.metrics, "metrics", true, "record Prometheus metrics")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Apply pending migrations, then serve the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(logOutput)
			if err != nil {
				return err
			}
			return svc.Run(cmd.Context())
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(logOutput)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()
			return svc.Migrate(cmd.Context())
		},
	}

	root.AddCommand(serve, migrate)
	root.RunE = serve.RunE

	return root
}

// service loads configuration and builds the service. Configuration errors
// are returned before any database work starts.
func (o *rootOptions) service(logOutput io.Writer) (*service.Service, error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.PrettyLogger(logOutput, level, o.noColor)).With("service", "personsd")

	logger.Info(context.Background(), "starting personsd",
		"version", version.Version,
		"driver", cfg.Driver,
		"http_addr", cfg.HTTPAddr,
	)

	return service.New(cfg,
		service.WithLogger(logger),
		service.WithMetrics(o.metrics),
	)
}
