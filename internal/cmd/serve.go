package cmd

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/config"
	errwrap "github.com/gridfeed/gridfeed/internal/errors"
	"github.com/gridfeed/gridfeed/internal/observability"
	"github.com/gridfeed/gridfeed/internal/server"
	"github.com/gridfeed/gridfeed/internal/server/handlers"
)

var (
	serverPort      int
	serverHost      string
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history over HTTP",
	Long: `Start a read-only HTTP API over recorded ingestion runs.

Endpoints:
  GET /health, /health/live, /health/ready
  GET /version
  GET /metrics                         (when metrics are enabled)
  GET /v1/runs?limit=N
  GET /v1/runs/{run-id}/{year}/failures

Ctrl+C (SIGINT) or SIGTERM shuts the server down gracefully.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		if cfg == nil {
			return stderrors.New("config not loaded")
		}

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host = serverHost
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		observability.InitServerLogger(config.AppName, cfg.Logging.Level)
		logger := observability.ServerLogger

		ctx := cmd.Context()
		db := mustOpenStore(ctx, cfg)
		defer db.Close() // nolint:errcheck // best-effort cleanup on store connection

		srv := server.New(db, server.Options{
			Host:        host,
			Port:        port,
			Build:       config.Build,
			MetricsPort: cfg.Metrics.Port,
			Logger:      logger,
		})
		srv.RegisterChecker("store", handlers.HealthCheckFunc(func(ctx context.Context) error {
			return db.DB.PingContext(ctx)
		}))
		if cfg.Metrics.Enabled {
			srv.RegisterChecker("telemetry", handlers.HealthCheckFunc(func(ctx context.Context) error {
				if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
					return stderrors.New("telemetry system not initialized")
				}
				return nil
			}))
		}

		logger.Info("Initializing server",
			zap.String("version", config.Build.Version),
			zap.String("store_driver", db.Driver()),
			zap.String("host", host),
			zap.Int("port", port),
			zap.Bool("metrics", cfg.Metrics.Enabled))

		// Shutdown handlers run LIFO: the HTTP server stops, then the
		// exporter, then the logger flushes.
		signals.OnShutdown(func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			return observability.StopMetrics()
		})
		signals.OnShutdown(func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.EnsureEnvelope(ctx, err)
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitFailure, "HTTP server failed", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "127.0.0.1", "Listen host (overrides server.host)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Listen port (overrides server.port)")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")
}
