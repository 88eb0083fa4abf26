package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/metrics"
)

// ScheduleSource returns the calendar of a season.
type ScheduleSource interface {
	EventSchedule(ctx context.Context, year int) ([]core.Event, error)
}

// SessionSource loads one session per request.
type SessionSource interface {
	Load(ctx context.Context, req core.SessionRequest) (core.Session, error)
}

// Ingestor drives batch loads over seasons or explicit event lists. A failed
// candidate is recorded in the report and never aborts the batch.
type Ingestor struct {
	Schedule    ScheduleSource
	Loader      SessionSource
	Concurrency int
	SessionType string
	Logger      core.Logger
	ErrorLogger core.Logger
	Clock       func() time.Time
	NewRunID    func() string
}

type candidate struct {
	year      int
	id        core.Identifier
	eventName string
}

// IngestSeason loads the race session of every numbered, non-testing round
// of the season. When the schedule cannot be fetched it returns a completed
// report with no candidates and a *core.ScheduleFetchFailedError.
func (i *Ingestor) IngestSeason(ctx context.Context, year int) (*core.IngestionReport, error) {
	if i == nil || i.Loader == nil || i.Schedule == nil {
		return nil, errors.New("ingestor is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	report := core.NewIngestionReport(i.runID(), year, i.now())
	i.logger().Info(fmt.Sprintf("Starting season %d ingestion", year), zap.Int("season", year))

	events, err := i.Schedule.EventSchedule(ctx, year)
	if err != nil {
		schedErr := &core.ScheduleFetchFailedError{Year: year, Cause: err}
		metrics.RecordScheduleFailure(year)
		i.errorLogger().Error("Failed to fetch event schedule", zap.Int("season", year), zap.Error(err))
		report.Err = schedErr
		report.Complete(i.now())
		return report, schedErr
	}

	candidates := make([]candidate, 0, len(events))
	for _, event := range events {
		if !event.IsRaceWeekend() {
			continue
		}
		candidates = append(candidates, candidate{
			year:      year,
			id:        core.RoundNumber(event.RoundNumber),
			eventName: event.EventName,
		})
	}
	i.logger().Info("Resolved season candidates",
		zap.Int("season", year), zap.Int("scheduled", len(events)), zap.Int("candidates", len(candidates)))

	for _, result := range i.run(ctx, candidates) {
		report.Record(result)
	}
	i.finish(report)
	return report, nil
}

// IngestYears ingests each season in order. A season whose schedule fails
// yields an empty report carrying the error; later seasons still run.
func (i *Ingestor) IngestYears(ctx context.Context, years []int) ([]*core.IngestionReport, error) {
	reports := make([]*core.IngestionReport, 0, len(years))
	for _, year := range years {
		report, err := i.IngestSeason(ctx, year)
		if report == nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// IngestEvents loads each (year, event) pair in list order. Results are
// grouped into one report per year, ordered by the year's first appearance.
// Duplicate pairs are loaded independently.
func (i *Ingestor) IngestEvents(ctx context.Context, refs []core.EventRef) ([]*core.IngestionReport, error) {
	if i == nil || i.Loader == nil {
		return nil, errors.New("ingestor is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runID := i.runID()
	started := i.now()
	reports := make([]*core.IngestionReport, 0)
	byYear := make(map[int]*core.IngestionReport)
	candidates := make([]candidate, 0, len(refs))
	for _, ref := range refs {
		if _, ok := byYear[ref.Year]; !ok {
			report := core.NewIngestionReport(runID, ref.Year, started)
			byYear[ref.Year] = report
			reports = append(reports, report)
		}
		name, _ := ref.Event.Event()
		candidates = append(candidates, candidate{year: ref.Year, id: ref.Event, eventName: name})
	}

	results := i.run(ctx, candidates)
	for idx, result := range results {
		byYear[candidates[idx].year].Record(result)
	}
	for _, report := range reports {
		i.finish(report)
	}
	return reports, nil
}

// run loads every candidate and returns results in candidate order.
func (i *Ingestor) run(ctx context.Context, candidates []candidate) []core.ItemResult {
	results := make([]core.ItemResult, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	workers := i.Concurrency
	if workers <= 1 {
		for idx, c := range candidates {
			results[idx] = i.loadOne(ctx, c)
		}
		return results
	}

	// Workers never return errors so one failure cannot cancel the others.
	var group errgroup.Group
	group.SetLimit(workers)
	for idx, c := range candidates {
		group.Go(func() error {
			results[idx] = i.loadOne(ctx, c)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (i *Ingestor) loadOne(ctx context.Context, c candidate) core.ItemResult {
	sessionType := i.SessionType
	if sessionType == "" {
		sessionType = core.SessionTypeRace
	}
	req := core.SessionRequest{Season: c.year, Identifier: c.id, SessionType: sessionType}

	session, err := i.Loader.Load(ctx, req)
	result := core.ItemResult{Identifier: c.id, EventName: c.eventName, Session: session, Err: err}
	metrics.RecordIngestItem(c.year, result.OK())

	if err != nil {
		i.errorLogger().Error("Failed to load session",
			zap.Int("season", c.year),
			zap.Stringer("identifier", c.id),
			zap.String("event", c.eventName),
			zap.Error(err))
		return result
	}
	if session != nil && result.EventName == "" {
		result.EventName = session.EventName()
	}
	return result
}

func (i *Ingestor) finish(report *core.IngestionReport) {
	report.Complete(i.now())
	i.logger().Info(fmt.Sprintf("Season %d completed: %s", report.Year, report.Summary()),
		zap.Int("season", report.Year),
		zap.Int("successes", report.SuccessCount()),
		zap.Int("failures", len(report.Failures)),
		zap.Int("total", report.TotalCandidates))
}

func (i *Ingestor) logger() core.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return core.NopLogger()
}

func (i *Ingestor) errorLogger() core.Logger {
	if i.ErrorLogger != nil {
		return i.ErrorLogger
	}
	return i.logger()
}

func (i *Ingestor) now() time.Time {
	if i.Clock != nil {
		return i.Clock()
	}
	return time.Now().UTC()
}

func (i *Ingestor) runID() string {
	if i.NewRunID != nil {
		return i.NewRunID()
	}
	return uuid.NewString()
}
