package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/gridfeed/gridfeed/internal/config"
	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/core/schema"
	"github.com/gridfeed/gridfeed/internal/output"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded ingestion runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent ingestion runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := reportTargetFrom(cmd)
		if err != nil {
			return err
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}

		cfg := config.GetConfig()
		if cfg == nil {
			return errors.New("config not loaded")
		}

		ctx := cmd.Context()
		db := mustOpenStore(ctx, cfg)
		defer db.Close() // nolint:errcheck // best-effort cleanup on store connection

		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 && target.format == output.FormatTable {
			lines := []string{"Ingestion Runs", "", "(no runs recorded)"}
			return target.write(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(lines, "\n"), 0))
		}

		rendered, err := output.NewFormatter(target.format).FormatRuns(runs)
		if err != nil {
			return err
		}
		return target.write(cmd.OutOrStdout(), rendered)
	},
}

var runsFailuresCmd = &cobra.Command{
	Use:   "failures <run-id> <year>",
	Short: "Show the failed sessions of one run",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid year %q: %w", args[1], err)
		}

		cfg := config.GetConfig()
		if cfg == nil {
			return errors.New("config not loaded")
		}

		ctx := cmd.Context()
		db := mustOpenStore(ctx, cfg)
		defer db.Close() // nolint:errcheck // best-effort cleanup on store connection

		failures, err := db.ListFailures(ctx, args[0], year)
		if err != nil {
			return err
		}

		lines := []string{fmt.Sprintf("Failures for %s (%d)", args[0], year), ""}
		if len(failures) == 0 {
			lines = append(lines, "(none)")
		}
		for _, failure := range failures {
			label := failure.Identifier
			if failure.EventName != "" && failure.EventName != label {
				label = fmt.Sprintf("%s %s", label, failure.EventName)
			}
			lines = append(lines, fmt.Sprintf("%s: %s", label, failure.Message))
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

var runsRaceCmd = &cobra.Command{
	Use:   "race <race>",
	Short: "Show stored rows for one race (2024_10 or year=2024/round=10_<name>)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, _, err := core.ParseRaceRef(args[0]); err != nil {
			return err
		}
		cfg := config.GetConfig()
		if cfg == nil {
			return errors.New("config not loaded")
		}

		ctx := cmd.Context()
		db := mustOpenStore(ctx, cfg)
		defer db.Close() // nolint:errcheck // best-effort cleanup on store connection

		lines, err := raceSummary(ctx, db, args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

type raceTables interface {
	CountRows(ctx context.Context, kind, raceID string) (int, error)
	Fingerprint(ctx context.Context, kind, raceID string) (string, error)
}

func raceSummary(ctx context.Context, db raceTables, ref string) ([]string, error) {
	season, round, raceID, err := core.ParseRaceRef(ref)
	if err != nil {
		return nil, err
	}

	lines := []string{fmt.Sprintf("Race %s (season %d, round %d)", raceID, season, round), ""}
	for _, kind := range schema.Kinds {
		count, err := db.CountRows(ctx, kind.Name, raceID)
		if err != nil {
			return nil, err
		}
		fingerprint, err := db.Fingerprint(ctx, kind.Name, raceID)
		if err != nil {
			return nil, err
		}
		if fingerprint == "" {
			fingerprint = "-"
		}
		lines = append(lines, fmt.Sprintf("%s: %d rows (fingerprint %s)", kind.Name, count, fingerprint))
	}
	return lines, nil
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsFailuresCmd)
	runsCmd.AddCommand(runsRaceCmd)

	runsListCmd.Flags().Int("limit", 20, "Maximum runs to show")
	addReportFlags(runsListCmd, false)
}
