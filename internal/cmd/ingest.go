package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gridfeed/gridfeed/internal/config"
	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/core/engine"
	"github.com/gridfeed/gridfeed/internal/core/pipeline"
	"github.com/gridfeed/gridfeed/internal/core/store"
	errwrap "github.com/gridfeed/gridfeed/internal/errors"
	"github.com/gridfeed/gridfeed/internal/observability"
	"github.com/gridfeed/gridfeed/internal/output"
	"github.com/gridfeed/gridfeed/internal/provider/jolpica"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch race sessions and store their tables",
	Long: `Fetch race sessions from the provider, normalize lap and result tables
and persist them. Failed sessions are reported and never stop the batch.`,
}

var ingestSeasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Ingest every race weekend of one or more seasons",
	Long: `Ingest every race weekend of the given seasons. Each season is isolated:
a season whose calendar cannot be fetched is reported and the next one runs.

Examples:
  gridfeed ingest season --year 2023
  gridfeed ingest season --year 2022 --year 2023 --output json`,
	Args: cobra.NoArgs,
	RunE: runIngestSeason,
}

var ingestEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Ingest an explicit list of race weekends",
	Long: `Ingest the listed race weekends. Events are YEAR:ROUND or YEAR:EVENT NAME.
A YAML file holds the same list under an "events" key.

Examples:
  gridfeed ingest events --event 2023:1 --event "2023:Monaco Grand Prix"
  gridfeed ingest events --file events.yaml`,
	Args: cobra.NoArgs,
	RunE: runIngestEvents,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestSeasonCmd)
	ingestCmd.AddCommand(ingestEventsCmd)

	addReportFlags(ingestCmd, true)
	ingestCmd.PersistentFlags().Int("concurrency", 0, "Sessions loaded in parallel (default from config workers)")
	ingestCmd.PersistentFlags().Bool("no-store", false, "Fetch and normalize only; skip persistence")
	ingestCmd.PersistentFlags().Bool("no-cache", false, "Bypass the on-disk provider response cache")

	ingestSeasonCmd.Flags().IntSlice("year", nil, "Season to ingest (repeatable)")
	_ = ingestSeasonCmd.MarkFlagRequired("year")

	ingestEventsCmd.Flags().StringSlice("event", nil, "Race weekend as YEAR:ROUND or YEAR:EVENT NAME (repeatable)")
	ingestEventsCmd.Flags().String("file", "", "YAML file listing events")
}

func runIngestSeason(cmd *cobra.Command, args []string) error {
	years, err := cmd.Flags().GetIntSlice("year")
	if err != nil {
		return err
	}
	if len(years) == 0 {
		return errors.New("at least one --year is required")
	}

	return runIngest(cmd, func(ctx context.Context, ingestor *engine.Ingestor) ([]*core.IngestionReport, error) {
		return ingestor.IngestYears(ctx, years)
	})
}

func runIngestEvents(cmd *cobra.Command, args []string) error {
	values, err := cmd.Flags().GetStringSlice("event")
	if err != nil {
		return err
	}
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}

	refs := make([]core.EventRef, 0, len(values))
	for _, value := range values {
		ref, err := parseEventRef(value)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}
	if strings.TrimSpace(file) != "" {
		fromFile, err := readEventFile(file)
		if err != nil {
			return err
		}
		refs = append(refs, fromFile...)
	}
	if len(refs) == 0 {
		return errors.New("at least one --event or --file is required")
	}

	return runIngest(cmd, func(ctx context.Context, ingestor *engine.Ingestor) ([]*core.IngestionReport, error) {
		return ingestor.IngestEvents(ctx, refs)
	})
}

type ingestFunc func(ctx context.Context, ingestor *engine.Ingestor) ([]*core.IngestionReport, error)

func runIngest(cmd *cobra.Command, ingest ingestFunc) error {
	target, err := reportTargetFrom(cmd)
	if err != nil {
		return err
	}
	noStore, err := cmd.Flags().GetBool("no-store")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}

	cfg := config.GetConfig()
	if cfg == nil {
		return errors.New("config not loaded")
	}
	workers := cfg.Workers
	if cmd.Flags().Changed("concurrency") {
		workers, err = cmd.Flags().GetInt("concurrency")
		if err != nil {
			return err
		}
		if workers < 1 {
			return errors.New("concurrency must be at least 1")
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()

	ingestor, err := buildIngestor(cfg, workers, noCache)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to build ingestor", errwrap.WrapConfigInvalid(ctx, err, "ingestor configuration invalid"))
	}

	var db *store.Store
	if !noStore {
		db = mustOpenStore(ctx, cfg)
		defer db.Close() // nolint:errcheck // best-effort cleanup on store connection
	}

	reports, err := ingest(ctx, ingestor)
	if err != nil {
		return err
	}

	processor := &pipeline.Processor{
		Logger:      observability.CLILogger,
		ErrorLogger: errorLog(),
	}
	var recorder runRecorder
	if db != nil {
		processor.Writer = db
		recorder = db
	}

	results, err := processReports(ctx, processor, recorder, reports)
	if err != nil {
		envelope := errwrap.WrapDatabaseError(ctx, err, "failed to record ingestion run")
		errwrap.Report(errorLog(), envelope)
		ExitWithCode(observability.CLILogger, errwrap.ExitCodeFor(envelope), "Failed to record ingestion run", envelope)
	}

	if err := writeSeasonResults(target, cmd.OutOrStdout(), results); err != nil {
		return err
	}
	logIngestThroughput(reports, startedAt)

	if violation := firstViolation(results); violation != nil {
		envelope := errwrap.EnsureEnvelope(ctx, violation)
		ExitWithCode(observability.CLILogger, errwrap.ExitCodeFor(envelope), "Schema enforcement failed", envelope)
	}
	if allSeasonsFailed(reports) {
		envelope := errwrap.EnsureEnvelope(ctx, reports[0].Err)
		ExitWithCode(observability.CLILogger, errwrap.ExitCodeFor(envelope), "No season schedule could be fetched", envelope)
	}
	return nil
}

func buildIngestor(cfg *config.Config, workers int, noCache bool) (*engine.Ingestor, error) {
	limiter, err := engine.NewAdaptiveLimiter(engine.Bounds{
		Min: cfg.RateLimit.MinDelay,
		Max: cfg.RateLimit.MaxDelay,
	})
	if err != nil {
		return nil, err
	}

	client := &jolpica.Client{
		BaseURL:     cfg.Provider.BaseURL,
		ToolVersion: config.Build.Version,
		Pace:        limiter.Wait,
	}
	if !noCache && strings.TrimSpace(cfg.Provider.CacheDir) != "" {
		if err := jolpica.EnsureCacheDir(cfg.Provider.CacheDir); err != nil {
			return nil, err
		}
		client.Cache = &jolpica.FileCache{
			Dir: cfg.Provider.CacheDir,
			Policy: jolpica.CachePolicy{
				CurrentSeasonTTL: cfg.Provider.CacheTTL,
				PastSeasonTTL:    cfg.Provider.PastSeasonCacheTTL,
			},
		}
	}

	loader := &engine.SessionLoader{
		Provider:    client,
		Limiter:     limiter,
		Timeout:     cfg.Provider.Timeout,
		Logger:      observability.CLILogger,
		ErrorLogger: errorLog(),
	}

	return &engine.Ingestor{
		Schedule:    client,
		Loader:      loader,
		Concurrency: workers,
		SessionType: cfg.Provider.SessionType,
		Logger:      observability.CLILogger,
		ErrorLogger: errorLog(),
	}, nil
}

type runRecorder interface {
	RecordRun(ctx context.Context, report *core.IngestionReport) error
}

type sessionProcessor interface {
	Process(ctx context.Context, session core.Session) (*pipeline.Processed, error)
}

// processReports runs the pipeline over every loaded session and records each
// report. Pipeline failures are kept per session on the result; only a failure
// to record a run is returned.
func processReports(ctx context.Context, processor sessionProcessor, recorder runRecorder, reports []*core.IngestionReport) ([]*output.SeasonResult, error) {
	results := make([]*output.SeasonResult, 0, len(reports))

	for _, report := range reports {
		if report == nil {
			continue
		}
		runCtx := errwrap.WithRunID(ctx, report.RunID)
		result := &output.SeasonResult{
			Report:        report,
			Rows:          map[int]map[string]int{},
			ProcessErrors: map[int]error{},
		}

		for i, session := range report.Successes {
			processed, err := processor.Process(runCtx, session)
			if err != nil {
				result.ProcessErrors[i] = err
				var schemaErr *core.SchemaViolationError
				if !errors.As(err, &schemaErr) {
					errwrap.Report(errorLog(), errwrap.EnsureEnvelope(runCtx, err))
				}
				continue
			}
			rows := make(map[string]int, len(processed.Tables))
			for kind, t := range processed.Tables {
				rows[kind] = t.Len()
			}
			result.Rows[i] = rows
		}

		if recorder != nil {
			if err := recorder.RecordRun(runCtx, report); err != nil {
				return nil, fmt.Errorf("record run %s for %d: %w", report.RunID, report.Year, err)
			}
		}
		results = append(results, result)
	}

	return results, nil
}

// firstViolation returns the first schema violation in report order.
func firstViolation(results []*output.SeasonResult) error {
	for _, result := range results {
		for i := range result.Report.Successes {
			err := result.ProcessErrors[i]
			var schemaErr *core.SchemaViolationError
			if errors.As(err, &schemaErr) {
				return err
			}
		}
	}
	return nil
}

func allSeasonsFailed(reports []*core.IngestionReport) bool {
	if len(reports) == 0 {
		return false
	}
	for _, report := range reports {
		if report == nil || report.Err == nil {
			return false
		}
	}
	return true
}

func writeSeasonResults(target reportTarget, stdout io.Writer, results []*output.SeasonResult) error {
	rendered, err := output.FormatSeasonList(target.format, results)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) == "" {
		return nil
	}
	return target.write(stdout, rendered)
}

func logIngestThroughput(reports []*core.IngestionReport, startedAt time.Time) {
	loaded := 0
	total := 0
	for _, report := range reports {
		loaded += report.SuccessCount()
		total += report.TotalCandidates
	}
	elapsed := time.Since(startedAt)
	observability.CLILogger.Info(
		"Ingestion finished",
		zap.Int("seasons", len(reports)),
		zap.Int("sessions_loaded", loaded),
		zap.Int("sessions_total", total),
		zap.Duration("elapsed", elapsed),
	)
}

// parseEventRef reads YEAR:ROUND or YEAR:EVENT NAME.
func parseEventRef(value string) (core.EventRef, error) {
	yearPart, idPart, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return core.EventRef{}, fmt.Errorf("event %q: expected YEAR:ROUND or YEAR:EVENT NAME", value)
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearPart))
	if err != nil {
		return core.EventRef{}, fmt.Errorf("event %q: invalid year: %w", value, err)
	}
	id := core.ParseIdentifier(idPart)
	if id.IsZero() {
		return core.EventRef{}, fmt.Errorf("event %q: round or event name is required", value)
	}
	return core.EventRef{Year: year, Event: id}, nil
}

type eventFile struct {
	Events []eventFileEntry `yaml:"events"`
}

type eventFileEntry struct {
	Year  int    `yaml:"year"`
	Event string `yaml:"event"`
}

func readEventFile(path string) ([]core.EventRef, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is an operator-provided CLI argument
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}

	var parsed eventFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse event file %s: %w", path, err)
	}

	refs := make([]core.EventRef, 0, len(parsed.Events))
	for i, entry := range parsed.Events {
		id := core.ParseIdentifier(entry.Event)
		if entry.Year == 0 || id.IsZero() {
			return nil, fmt.Errorf("event file %s: entry %d needs year and event", path, i+1)
		}
		refs = append(refs, core.EventRef{Year: entry.Year, Event: id})
	}
	return refs, nil
}
