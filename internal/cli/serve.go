package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/todox/internal/config"
	"github.com/roach88/todox/internal/metrics"
	"github.com/roach88/todox/internal/server"
	"github.com/roach88/todox/internal/telemetry"
)

// Version is reported in traces. Set at build time with -ldflags.
var Version = "dev"

// ServeOptions holds flags for the serve command. Flags left unset keep
// the value from the config file.
type ServeOptions struct {
	*RootOptions
	Listen        string
	StaticDir     string
	Backend       string
	Database      string
	DataDir       string
	Metrics       bool
	TraceExporter string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the todox HTTP server.

The store is opened (and created if missing) according to the config file
and flags. The server runs until SIGINT or SIGTERM, then drains in-flight
requests within the configured grace period.

Example:
  todox serve
  todox serve --listen :8080 --backend badger --data-dir ./data
  todox serve --config todox.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "address to listen on (host:port)")
	cmd.Flags().StringVar(&opts.StaticDir, "static", "", "directory served for unmatched paths")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "storage backend (memory|sqlite|badger)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "Badger data directory")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", true, "expose Prometheus metrics on /metrics")
	cmd.Flags().StringVar(&opts.TraceExporter, "trace", "", "trace exporter (none|stdout)")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (o *ServeOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = o.Listen
	}
	if flags.Changed("static") {
		cfg.StaticDir = o.StaticDir
	}
	if flags.Changed("metrics") {
		cfg.Metrics = o.Metrics
	}
	if flags.Changed("trace") {
		cfg.TraceExporter = o.TraceExporter
	}
	applyStorageFlags(cmd, cfg, o.Backend, o.Database, o.DataDir)
}

// applyStorageFlags is shared by every command that opens the store.
func applyStorageFlags(cmd *cobra.Command, cfg *config.Config, backend, db, dataDir string) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Storage.Backend = backend
	}
	if flags.Changed("db") {
		cfg.Storage.SQLitePath = db
	}
	if flags.Changed("data-dir") {
		cfg.Storage.BadgerDir = dataDir
	}
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(func(c *config.Config) { opts.apply(cmd, c) })
	if err != nil {
		return report(formatter, err)
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	gin.SetMode(cfg.GinMode)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "todox",
		ServiceVersion: Version,
		TraceExporter:  cfg.TraceExporter,
		Writer:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return report(formatter, WrapExitError(ExitCommandError, "failed to init tracing", err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("error flushing traces", "error", err)
		}
	}()

	logger.Info("opening store", "backend", cfg.Storage.Backend)
	st, err := openStore(cfg, logger)
	if err != nil {
		return report(formatter, err)
	}
	defer closeStore(st, logger)

	var m *metrics.Metrics
	if cfg.Metrics {
		m = metrics.New()
	}
	srv := server.New(st, server.Options{
		StaticDir: cfg.StaticDir,
		Logger:    logger,
		Metrics:   m,
	})

	formatter.VerboseLog("static dir %s, metrics %t, tracing %s", cfg.StaticDir, cfg.Metrics, cfg.TraceExporter)
	fmt.Fprintf(cmd.OutOrStdout(), "todox listening on %s\n", cfg.Listen)

	if err := srv.ListenAndServe(ctx, cfg.Listen, cfg.ShutdownGrace()); err != nil {
		return report(formatter, WrapExitError(ExitFailure, "server error", err))
	}
	logger.Info("server stopped gracefully")
	return nil
}
