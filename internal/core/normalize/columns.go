package normalize

import "github.com/gridfeed/gridfeed/internal/core/table"

// LapTimeColumns returns a copy of t with every listed column converted to
// nullable int64 milliseconds. Columns absent from t are skipped.
func LapTimeColumns(t *table.Table, columns ...string) *table.Table {
	return mapColumns(t, columns, func(v any) any {
		if ms, ok := LapTimeMillis(v); ok {
			return ms
		}
		return nil
	})
}

// CompoundColumns returns a copy of t with the listed columns canonicalized to
// tyre compound names, nil where unrecognized.
func CompoundColumns(t *table.Table, columns ...string) *table.Table {
	return mapColumns(t, columns, func(v any) any {
		if c, ok := TyreCompound(v); ok {
			return string(c)
		}
		return nil
	})
}

// TrackStatusColumns returns a copy of t with the listed columns canonicalized
// to track status names, nil where unrecognized.
func TrackStatusColumns(t *table.Table, columns ...string) *table.Table {
	return mapColumns(t, columns, func(v any) any {
		if s, ok := TrackStatus(v); ok {
			return string(s)
		}
		return nil
	})
}

func mapColumns(t *table.Table, columns []string, fn func(any) any) *table.Table {
	out := t.Clone()
	for _, name := range columns {
		values, ok := out.Column(name)
		if !ok {
			continue
		}
		for i, v := range values {
			values[i] = fn(v)
		}
		// Length is unchanged, so SetColumn cannot fail here.
		_ = out.SetColumn(name, values)
	}
	return out
}
