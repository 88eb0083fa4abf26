package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gridfeed/gridfeed/internal/core"
)

// DefaultRunListLimit caps ListRuns when no limit is given.
const DefaultRunListLimit = 20

// RunRecord is one persisted season report.
type RunRecord struct {
	RunID           string    `json:"run_id"`
	Year            int       `json:"year"`
	TotalCandidates int       `json:"total_candidates"`
	Successes       int       `json:"successes"`
	Failures        int       `json:"failures"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Summary renders "{successes}/{total}".
func (r RunRecord) Summary() string {
	return fmt.Sprintf("%d/%d", r.Successes, r.TotalCandidates)
}

// FailureRecord is one persisted failed candidate.
type FailureRecord struct {
	Identifier string `json:"identifier"`
	EventName  string `json:"event_name,omitempty"`
	Message    string `json:"error"`
}

// RecordRun persists a completed ingestion report. Recording the same run
// and year again replaces the earlier record.
func (s *Store) RecordRun(ctx context.Context, report *core.IngestionReport) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if report == nil {
		return errors.New("report is required")
	}
	if strings.TrimSpace(report.RunID) == "" {
		return errors.New("report run id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM ingestion_failures WHERE run_id = ? AND year = ?`,
		`DELETE FROM ingestion_runs WHERE run_id = ? AND year = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s.rebind(stmt), report.RunID, report.Year); err != nil {
			return fmt.Errorf("clear run record: %w", err)
		}
	}

	var errText sql.NullString
	if msg := report.ErrorMessage(); msg != "" {
		errText = sql.NullString{String: msg, Valid: true}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO ingestion_runs
			(run_id, year, total_candidates, successes, failures, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), report.RunID, report.Year, report.TotalCandidates, report.SuccessCount(), len(report.Failures),
		errText, report.StartedAt.UnixMilli(), report.CompletedAt.UnixMilli()); err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}

	for i, failure := range report.Failures {
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO ingestion_failures (run_id, year, position, identifier, event_name, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`), report.RunID, report.Year, i, failure.Identifier.String(), failure.EventName, failure.Message); err != nil {
			return fmt.Errorf("insert run failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run record: %w", err)
	}
	return nil
}

// ListRuns returns the most recent season reports, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if limit <= 0 {
		limit = DefaultRunListLimit
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(`
		SELECT run_id, year, total_candidates, successes, failures, error, started_at, completed_at
		FROM ingestion_runs
		ORDER BY started_at DESC, year ASC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var records []RunRecord
	for rows.Next() {
		var (
			record      RunRecord
			errText     sql.NullString
			startedAt   int64
			completedAt int64
		)
		if err := rows.Scan(&record.RunID, &record.Year, &record.TotalCandidates, &record.Successes,
			&record.Failures, &errText, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		record.Error = errText.String
		record.StartedAt = time.UnixMilli(startedAt).UTC()
		record.CompletedAt = time.UnixMilli(completedAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// ListFailures returns the failed candidates of one run and year in
// candidate order.
func (s *Store) ListFailures(ctx context.Context, runID string, year int) ([]FailureRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(`
		SELECT identifier, event_name, message
		FROM ingestion_failures
		WHERE run_id = ? AND year = ?
		ORDER BY position ASC
	`), runID, year)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var failures []FailureRecord
	for rows.Next() {
		var (
			failure   FailureRecord
			eventName sql.NullString
		)
		if err := rows.Scan(&failure.Identifier, &eventName, &failure.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failure.EventName = eventName.String
		failures = append(failures, failure)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	return failures, nil
}
