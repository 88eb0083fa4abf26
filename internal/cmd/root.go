package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/config"
	"github.com/gridfeed/gridfeed/internal/core"
	errwrap "github.com/gridfeed/gridfeed/internal/errors"
	"github.com/gridfeed/gridfeed/internal/observability"
)

var (
	cfgFile  string
	envFiles []string
	verbose  bool

	// closeErrorLog flushes the rotating error log on exit
	closeErrorLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Formula 1 race data ingestion",
	Long: `gridfeed pulls race sessions from the Jolpica F1 API, shapes lap and
result tables into a fixed schema and stores them in libsql or PostgreSQL.

Use the subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute runs the command tree, then releases the error log and the
// metrics exporter.
func Execute() error {
	defer func() {
		_ = observability.StopMetrics()
		_ = closeErrorLog()
	}()
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early; initConfig enables the Prometheus
	// exporter when metrics are configured.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/gridfeed/config.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig loads the layered configuration and brings up logging and metrics.
func initConfig() {
	ctx := context.Background()

	cfg, err := config.Load(ctx, config.Options{ConfigFile: cfgFile, EnvFiles: envFiles})
	if err != nil {
		ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to load configuration", errwrap.WrapConfigInvalid(ctx, err, "configuration invalid"))
	}

	observability.InitCLILogger(config.AppName, verbose || cfg.Logging.Level == "debug")

	closer, err := observability.InitErrorLogger(config.AppName, observability.ErrorLogOptions{Path: cfg.Logging.ErrorLog})
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to open error log", err)
	}
	closeErrorLog = closer

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port); err != nil {
			observability.CLILogger.Warn("Metrics exporter unavailable", zap.Error(err))
		} else {
			observability.CLILogger.Debug("Metrics exporter listening",
				zap.String("endpoint", fmt.Sprintf(":%d/metrics", observability.GetMetricsPort())))
		}
	}
}

// errorLog returns the error channel, or a no-op logger before initConfig ran.
func errorLog() core.Logger {
	if observability.ErrorLogger == nil {
		return core.NopLogger()
	}
	return observability.ErrorLogger
}
