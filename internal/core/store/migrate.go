package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gridfeed/gridfeed/internal/core/schema"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ingestion_runs (
		run_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		total_candidates INTEGER NOT NULL,
		successes INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		error TEXT,
		started_at BIGINT NOT NULL,
		completed_at BIGINT NOT NULL,
		PRIMARY KEY (run_id, year)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_ingestion_runs_started ON ingestion_runs(started_at);`,
	`CREATE TABLE IF NOT EXISTS ingestion_failures (
		run_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		position INTEGER NOT NULL,
		identifier TEXT NOT NULL,
		event_name TEXT,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, year, position)
	);`,
	`CREATE TABLE IF NOT EXISTS table_fingerprints (
		kind TEXT NOT NULL,
		race_id TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		written_at BIGINT NOT NULL,
		PRIMARY KEY (kind, race_id)
	);`,
}

// columnTypes holds the SQL type of every persisted column. Both drivers
// accept these names.
var columnTypes = map[string]string{
	schema.ColumnRaceID:   "TEXT",
	schema.ColumnSeason:   "INTEGER",
	schema.ColumnRound:    "INTEGER",
	"driver_id":           "TEXT",
	"lap_number":          "INTEGER",
	"position":            "INTEGER",
	"lap_time_ms":         "BIGINT",
	"compound":            "TEXT",
	"track_status":        "TEXT",
	"constructor_id":      "TEXT",
	"grid":                "INTEGER",
	"status":              "TEXT",
	"points":              "DOUBLE PRECISION",
	"laps":                "INTEGER",
	"fastest_lap_time_ms": "BIGINT",
	"race_time_ms":        "BIGINT",
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	statements := append([]string{}, schemaStatements...)
	for _, kind := range schema.Kinds {
		statements = append(statements, kindStatements(kind)...)
	}

	for _, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}

// TableName returns the SQL table holding rows of the given kind.
func TableName(kind string) string {
	return "race_" + kind
}

func kindStatements(kind schema.Kind) []string {
	name := TableName(kind.Name)
	columns := schema.Allowed(kind.Stable, kind.Normalized)

	defs := make([]string, 0, len(columns))
	for _, column := range columns {
		defs = append(defs, fmt.Sprintf("\t\t%s %s", column, columnType(column)))
	}

	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n\t);", name, strings.Join(defs, ",\n")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_race ON %s(%s);", name, name, schema.ColumnRaceID),
	}
}

func columnType(column string) string {
	if t, ok := columnTypes[column]; ok {
		return t
	}
	return "TEXT"
}
