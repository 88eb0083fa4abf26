package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/config"
	errwrap "github.com/gridfeed/gridfeed/internal/errors"
	"github.com/gridfeed/gridfeed/internal/observability"
	"github.com/gridfeed/gridfeed/internal/provider/jolpica"
)

const doctorProviderTimeout = 15 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Check configuration, the store and provider reachability, and suggest fixes for common issues.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		observability.CLILogger.Info("=== " + config.AppName + " doctor ===")
		observability.CLILogger.Info("")

		allChecks := true
		totalChecks := 5

		// Check 1: Gofulmen and Crucible
		version := crucible.GetVersion()
		if version.Gofulmen != "" && version.Crucible != "" {
			observability.CLILogger.Info(fmt.Sprintf("[1/%d] Checking Gofulmen... ✅ v%s (crucible v%s)", totalChecks, version.Gofulmen, version.Crucible),
				zap.String("gofulmen_version", version.Gofulmen), zap.String("crucible_version", version.Crucible))
		} else {
			observability.CLILogger.Warn(fmt.Sprintf("[1/%d] Checking Gofulmen... ⚠️  version metadata unavailable", totalChecks))
			allChecks = false
		}

		// Check 2: Configuration
		cfg := config.GetConfig()
		if cfg == nil {
			observability.CLILogger.Error(fmt.Sprintf("[2/%d] Checking configuration... ❌ not loaded", totalChecks))
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration not loaded", nil)
			return
		}
		configDir := filepath.Dir(config.DefaultConfigPath())
		observability.CLILogger.Info(fmt.Sprintf("[2/%d] Checking configuration... ✅ %s (%s/%s)", totalChecks, configDir, runtime.GOOS, runtime.GOARCH),
			zap.String("config_dir", configDir))

		// Check 3: Provider cache
		if cfg.Provider.CacheDir == "" {
			observability.CLILogger.Warn(fmt.Sprintf("[3/%d] Checking response cache... ⚠️  disabled (set provider.cache_dir)", totalChecks))
		} else if err := jolpica.EnsureCacheDir(cfg.Provider.CacheDir); err != nil {
			observability.CLILogger.Warn(fmt.Sprintf("[3/%d] Checking response cache... ⚠️  %s", totalChecks, cfg.Provider.CacheDir), zap.Error(err))
			allChecks = false
		} else {
			observability.CLILogger.Info(fmt.Sprintf("[3/%d] Checking response cache... ✅ %s", totalChecks, cfg.Provider.CacheDir),
				zap.String("cache_dir", cfg.Provider.CacheDir))
		}

		// Check 4: Store
		db, err := openStore(ctx, cfg)
		if err != nil {
			observability.CLILogger.Warn(fmt.Sprintf("[4/%d] Checking store... ⚠️  %s unavailable", totalChecks, cfg.Store.Driver), zap.Error(err))
			allChecks = false
		} else {
			runs, listErr := db.ListRuns(ctx, 1)
			_ = db.Close()
			switch {
			case listErr != nil:
				observability.CLILogger.Warn(fmt.Sprintf("[4/%d] Checking store... ⚠️  cannot read runs", totalChecks), zap.Error(listErr))
				allChecks = false
			case len(runs) == 0:
				observability.CLILogger.Info(fmt.Sprintf("[4/%d] Checking store... ✅ %s (no runs yet)", totalChecks, cfg.Store.Driver))
			default:
				observability.CLILogger.Info(fmt.Sprintf("[4/%d] Checking store... ✅ %s (last run %s, %d %s)", totalChecks,
					cfg.Store.Driver, runs[0].RunID, runs[0].Year, runs[0].Summary()))
			}
		}

		// Check 5: Provider
		probeCtx, cancel := context.WithTimeout(ctx, doctorProviderTimeout)
		defer cancel()
		client := &jolpica.Client{BaseURL: cfg.Provider.BaseURL, ToolVersion: config.Build.Version}
		year := time.Now().Year()
		events, err := client.EventSchedule(probeCtx, year)
		if err != nil {
			observability.CLILogger.Error(fmt.Sprintf("[5/%d] Checking provider... ❌ %s", totalChecks, cfg.Provider.BaseURL), zap.Error(err))
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Provider unreachable",
				errwrap.WrapExternalService(ctx, err, "provider unreachable"))
			return
		}
		observability.CLILogger.Info(fmt.Sprintf("[5/%d] Checking provider... ✅ %d events in %d", totalChecks, len(events), year),
			zap.String("base_url", cfg.Provider.BaseURL))

		observability.CLILogger.Info("")
		if allChecks {
			observability.CLILogger.Info("All checks passed")
		} else {
			observability.CLILogger.Warn("Some checks need attention")
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
