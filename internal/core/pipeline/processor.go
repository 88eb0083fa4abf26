// Package pipeline turns a loaded session into schema-conformant tables and
// hands them to a writer.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/core/normalize"
	"github.com/gridfeed/gridfeed/internal/core/schema"
	"github.com/gridfeed/gridfeed/internal/core/table"
	"github.com/gridfeed/gridfeed/internal/metrics"
)

// TableWriter persists one enforced table for a race.
type TableWriter interface {
	WriteTable(ctx context.Context, kind, raceID string, t *table.Table) error
}

// Processed holds the enforced tables of one session, keyed by kind name.
type Processed struct {
	RaceID string
	Tables map[string]*table.Table
}

// Processor runs normalization and schema enforcement over every record kind
// of a session. A nil Writer skips persistence.
type Processor struct {
	Writer      TableWriter
	Kinds       []schema.Kind
	Logger      core.Logger
	ErrorLogger core.Logger
}

// Process shapes and writes every kind of the session. A schema violation is
// logged on the error channel and returned unchanged.
func (p *Processor) Process(ctx context.Context, session core.Session) (*Processed, error) {
	if p == nil {
		return nil, errors.New("processor is nil")
	}
	if session == nil {
		return nil, errors.New("session is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	raceID := core.RaceID(session.Season(), session.Round())
	out := &Processed{RaceID: raceID, Tables: make(map[string]*table.Table)}

	for _, kind := range p.kinds() {
		raw := rawTable(session, kind)
		if raw == nil {
			p.logger().Warn("Session has no table for kind",
				zap.String("race_id", raceID), zap.String("table", kind.Name))
			continue
		}

		shaped, err := Shape(raw, kind, session)
		if err != nil {
			var violation *core.SchemaViolationError
			if errors.As(err, &violation) {
				metrics.RecordSchemaViolation(violation.Table)
				p.errorLogger().Error("Schema violation",
					zap.String("race_id", raceID),
					zap.String("table", violation.Table),
					zap.Strings("missing_columns", violation.Missing))
			}
			return nil, err
		}
		out.Tables[kind.Name] = shaped

		if p.Writer == nil {
			continue
		}
		if err := p.Writer.WriteTable(ctx, kind.Name, raceID, shaped); err != nil {
			p.errorLogger().Error("Failed to persist table",
				zap.String("race_id", raceID), zap.String("table", kind.Name), zap.Error(err))
			return nil, fmt.Errorf("write %s for %s: %w", kind.Name, raceID, err)
		}
		metrics.RecordRowsWritten(kind.Name, shaped.Len())
		p.logger().Debug("Persisted table",
			zap.String("race_id", raceID), zap.String("table", kind.Name), zap.Int("rows", shaped.Len()))
	}

	return out, nil
}

// Shape normalizes one raw provider table for the given kind: column names
// are normalized, unsafe columns dropped, provider names renamed, identity
// columns added, values canonicalized and the schema enforced.
func Shape(raw *table.Table, kind schema.Kind, session core.Session) (*table.Table, error) {
	t, err := table.NormalizeColumnNames(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s column names: %w", kind.Name, err)
	}
	t = schema.DropUnsafe(t, kind.Unsafe...)
	if t, err = t.Rename(kind.Renames); err != nil {
		return nil, fmt.Errorf("rename %s columns: %w", kind.Name, err)
	}

	identity := []struct {
		name  string
		value any
	}{
		{schema.ColumnRaceID, core.RaceID(session.Season(), session.Round())},
		{schema.ColumnSeason, session.Season()},
		{schema.ColumnRound, session.Round()},
	}
	for _, col := range identity {
		if err := t.Fill(col.name, col.value); err != nil {
			return nil, fmt.Errorf("fill %s.%s: %w", kind.Name, col.name, err)
		}
	}

	t = normalize.LapTimeColumns(t, kind.LapTimes...)
	t = normalize.CompoundColumns(t, kind.Compounds...)
	t = normalize.TrackStatusColumns(t, kind.TrackStatuses...)

	return kind.Enforce(t)
}

func rawTable(session core.Session, kind schema.Kind) *table.Table {
	switch kind.Name {
	case schema.Laps.Name:
		return session.Laps()
	case schema.Results.Name:
		return session.Results()
	default:
		return nil
	}
}

func (p *Processor) kinds() []schema.Kind {
	if len(p.Kinds) > 0 {
		return p.Kinds
	}
	return schema.Kinds
}

func (p *Processor) logger() core.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return core.NopLogger()
}

func (p *Processor) errorLogger() core.Logger {
	if p.ErrorLogger != nil {
		return p.ErrorLogger
	}
	return p.logger()
}
