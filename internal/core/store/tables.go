package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gridfeed/gridfeed/internal/core/schema"
	"github.com/gridfeed/gridfeed/internal/core/table"
)

// insertChunkRows bounds the rows sent in one INSERT statement.
const insertChunkRows = 200

// WriteTable replaces every stored row of the given kind for raceID with the
// contents of t. A table whose fingerprint matches the stored one is skipped.
func (s *Store) WriteTable(ctx context.Context, kind, raceID string, t *table.Table) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if t == nil {
		return errors.New("table is required")
	}
	raceID = strings.TrimSpace(raceID)
	if raceID == "" {
		return errors.New("race id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	spec, ok := kindByName(kind)
	if !ok {
		return fmt.Errorf("unknown table kind: %s", kind)
	}
	if err := checkColumns(spec, t.Columns()); err != nil {
		return err
	}

	fingerprint := table.Fingerprint(t)
	stored, err := s.Fingerprint(ctx, kind, raceID)
	if err != nil {
		return err
	}
	if stored == fingerprint {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s write: %w", kind, err)
	}
	defer func() { _ = tx.Rollback() }()

	name := TableName(kind)
	// #nosec G201 -- table name comes from the fixed kind registry
	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", name, schema.ColumnRaceID)
	if _, err := tx.ExecContext(ctx, s.rebind(deleteQuery), raceID); err != nil {
		return fmt.Errorf("clear %s for %s: %w", kind, raceID, err)
	}

	columns := t.Columns()
	for _, chunk := range table.Chunk(t.Rows(), insertChunkRows) {
		query, args := insertStatement(name, columns, chunk)
		if _, err := tx.ExecContext(ctx, s.rebind(query), args...); err != nil {
			return fmt.Errorf("insert %s for %s: %w", kind, raceID, err)
		}
	}

	upsert := `INSERT INTO table_fingerprints (kind, race_id, fingerprint, row_count, written_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, race_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			row_count = excluded.row_count,
			written_at = excluded.written_at`
	if _, err := tx.ExecContext(ctx, s.rebind(upsert), kind, raceID, fingerprint, t.Len(), s.now().UnixMilli()); err != nil {
		return fmt.Errorf("record %s fingerprint: %w", kind, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s write: %w", kind, err)
	}
	return nil
}

// Fingerprint returns the fingerprint of the last table written for kind and
// raceID, or "" when none was written.
func (s *Store) Fingerprint(ctx context.Context, kind, raceID string) (string, error) {
	if s == nil || s.DB == nil {
		return "", errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var fingerprint string
	row := s.DB.QueryRowContext(ctx, s.rebind(`
		SELECT fingerprint FROM table_fingerprints
		WHERE kind = ? AND race_id = ?
	`), kind, raceID)
	if err := row.Scan(&fingerprint); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("fetch %s fingerprint: %w", kind, err)
	}
	return fingerprint, nil
}

// CountRows returns the number of stored rows of kind for raceID.
func (s *Store) CountRows(ctx context.Context, kind, raceID string) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if _, ok := kindByName(kind); !ok {
		return 0, fmt.Errorf("unknown table kind: %s", kind)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// #nosec G201 -- table name comes from the fixed kind registry
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", TableName(kind), schema.ColumnRaceID)
	var count int
	if err := s.DB.QueryRowContext(ctx, s.rebind(query), raceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", kind, err)
	}
	return count, nil
}

func kindByName(name string) (schema.Kind, bool) {
	for _, kind := range schema.Kinds {
		if kind.Name == name {
			return kind, true
		}
	}
	return schema.Kind{}, false
}

// checkColumns rejects columns outside the kind's persisted set so column
// names are safe to interpolate.
func checkColumns(kind schema.Kind, columns []string) error {
	allowed := make(map[string]struct{})
	for _, name := range schema.Allowed(kind.Stable, kind.Normalized) {
		allowed[name] = struct{}{}
	}
	for _, column := range columns {
		if _, ok := allowed[column]; !ok {
			return fmt.Errorf("%s has no column %q", kind.Name, column)
		}
	}
	return nil
}

func insertStatement(name string, columns []string, rows [][]any) (string, []any) {
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		placeholders[i] = rowPlaceholder
		for _, cell := range row {
			args = append(args, sqlValue(cell))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		name, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func sqlValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Duration:
		return x.Milliseconds()
	case time.Time:
		return x.UnixMilli()
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case string, int64, float64, bool, []byte:
		return x
	default:
		return fmt.Sprint(x)
	}
}
