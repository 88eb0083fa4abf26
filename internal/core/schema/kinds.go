package schema

import "github.com/gridfeed/gridfeed/internal/core/table"

// Kind describes how one record kind is shaped for persistence.
type Kind struct {
	Name       string
	Stable     []string
	Normalized []string
	// Unsafe columns are dropped before anything else.
	Unsafe []string
	// Renames map raw provider column names onto their persisted names.
	Renames       map[string]string
	LapTimes      []string
	Compounds     []string
	TrackStatuses []string
}

// Enforce applies Enforce with the kind's column lists.
func (k Kind) Enforce(t *table.Table) (*table.Table, error) {
	return Enforce(t, k.Stable, k.Normalized, k.Name)
}

// Identity columns added to every table from the session it came from.
const (
	ColumnRaceID = "race_id"
	ColumnSeason = "season"
	ColumnRound  = "round"
)

// Laps shapes per-driver lap timings.
var Laps = Kind{
	Name:          "laps",
	Stable:        []string{ColumnRaceID, ColumnSeason, ColumnRound, "driver_id", "lap_number", "position"},
	Normalized:    []string{"lap_time_ms", "compound", "track_status"},
	Unsafe:        []string{"driver_url"},
	Renames:       map[string]string{"lap_time": "lap_time_ms"},
	LapTimes:      []string{"lap_time_ms"},
	Compounds:     []string{"compound"},
	TrackStatuses: []string{"track_status"},
}

// Results shapes the classified race result.
var Results = Kind{
	Name: "results",
	Stable: []string{
		ColumnRaceID, ColumnSeason, ColumnRound,
		"driver_id", "constructor_id", "grid", "position", "status", "points", "laps",
	},
	Normalized: []string{"fastest_lap_time_ms", "race_time_ms"},
	Unsafe:     []string{"driver_url", "constructor_url"},
	Renames: map[string]string{
		"fastest_lap_time": "fastest_lap_time_ms",
		"race_time":        "race_time_ms",
	},
	LapTimes: []string{"fastest_lap_time_ms", "race_time_ms"},
}

// Kinds lists every record kind in persistence order.
var Kinds = []Kind{Laps, Results}
