package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromRowsAndAccessors(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b"}, [][]any{{1, "x"}, {2, nil}})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, []string{"a", "b"}, tbl.Columns())
	require.Equal(t, []any{2, nil}, tbl.Row(1))
	require.Nil(t, tbl.Cell(5, "a"))
	require.Nil(t, tbl.Cell(0, "zzz"))

	_, err = FromRows([]string{"a", "a"}, nil)
	require.Error(t, err)

	_, err = FromRows([]string{"a"}, [][]any{{1, 2}})
	require.ErrorIs(t, err, ErrRowWidth)
}

func TestColumnReturnsCopy(t *testing.T) {
	tbl, err := FromRows([]string{"a"}, [][]any{{1}})
	require.NoError(t, err)

	values, ok := tbl.Column("a")
	require.True(t, ok)
	values[0] = 99
	require.Equal(t, 1, tbl.Cell(0, "a"))
}

func TestSetColumnAndFill(t *testing.T) {
	tbl, err := FromRows([]string{"a"}, [][]any{{1}, {2}})
	require.NoError(t, err)

	require.NoError(t, tbl.Fill("season", 2023))
	require.Equal(t, []string{"a", "season"}, tbl.Columns())
	require.Equal(t, []any{2, 2023}, tbl.Row(1))

	require.Error(t, tbl.SetColumn("b", []any{1}))

	empty := New()
	require.NoError(t, empty.SetColumn("x", []any{1, 2, 3}))
	require.Equal(t, 3, empty.Len())
}

func TestSelectDropRename(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b", "c"}, [][]any{{1, 2, 3}})
	require.NoError(t, err)

	sel, err := tbl.Select("c", "a")
	require.NoError(t, err)
	require.Equal(t, []any{3, 1}, sel.Row(0))

	_, err = tbl.Select("missing")
	require.Error(t, err)

	dropped := tbl.Drop("b", "nope")
	require.Equal(t, []string{"a", "c"}, dropped.Columns())
	require.Equal(t, 1, dropped.Len())

	renamed, err := tbl.Rename(map[string]string{"a": "alpha", "absent": "x"})
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "b", "c"}, renamed.Columns())

	_, err = tbl.Rename(map[string]string{"a": "b"})
	require.Error(t, err)
}

func TestNilTableIsEmpty(t *testing.T) {
	var tbl *Table
	require.Zero(t, tbl.Len())
	require.Empty(t, tbl.Columns())
	require.False(t, tbl.Has("a"))
	require.Empty(t, tbl.Rows())
	require.Error(t, tbl.AppendRow(1))
}

func TestNormalizeColumnNames(t *testing.T) {
	tbl := New(" Driver ID ", "LapTime", "lap number")
	out, err := NormalizeColumnNames(tbl)
	require.NoError(t, err)
	require.Equal(t, []string{"driver_id", "laptime", "lap_number"}, out.Columns())

	_, err = NormalizeColumnNames(New("Lap Number", "lap_number"))
	require.Error(t, err)
}

func TestChunk(t *testing.T) {
	rows := [][]any{{1}, {2}, {3}, {4}, {5}}
	chunks := Chunk(rows, 2)
	require.Len(t, chunks, 3)
	require.Equal(t, [][]any{{5}}, chunks[2])

	require.Empty(t, Chunk(nil, 10))
	require.Len(t, Chunk(rows, 0), 5)
}

func TestFingerprint(t *testing.T) {
	a, err := FromRows([]string{"x", "y"}, [][]any{{1, "a"}, {nil, time.Second}})
	require.NoError(t, err)
	b := a.Clone()

	require.Equal(t, Fingerprint(a), Fingerprint(b))
	require.NotEmpty(t, Fingerprint(a))

	require.NoError(t, b.SetColumn("x", []any{1, 2}))
	require.NotEqual(t, Fingerprint(a), Fingerprint(b))

	// same text, different type
	c, err := FromRows([]string{"x"}, [][]any{{"1"}})
	require.NoError(t, err)
	d, err := FromRows([]string{"x"}, [][]any{{1}})
	require.NoError(t, err)
	require.NotEqual(t, Fingerprint(c), Fingerprint(d))
}
