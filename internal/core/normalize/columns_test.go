package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridfeed/gridfeed/internal/core/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(
		[]string{"driver_id", "lap_time", "compound", "track_status"},
		[][]any{
			{"ver", "1:32.456", "c5", "4"},
			{"ham", nil, "wet", 5},
			{"alo", "garbage", nil, "1"},
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestLapTimeColumns(t *testing.T) {
	in := sampleTable(t)
	out := LapTimeColumns(in, "lap_time", "absent")

	values, ok := out.Column("lap_time")
	require.True(t, ok)
	require.Equal(t, []any{int64(92456), nil, nil}, values)
	require.Equal(t, in.Columns(), out.Columns())

	// input untouched
	require.Equal(t, "1:32.456", in.Cell(0, "lap_time"))
}

func TestCompoundAndTrackStatusColumns(t *testing.T) {
	out := TrackStatusColumns(CompoundColumns(sampleTable(t), "compound"), "track_status")

	compounds, _ := out.Column("compound")
	require.Equal(t, []any{"SOFT", nil, nil}, compounds)

	statuses, _ := out.Column("track_status")
	require.Equal(t, []any{"SC", "RED", "GREEN"}, statuses)
}
