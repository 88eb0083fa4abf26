// Package schema validates normalized tables and restricts them to a fixed,
// ordered column set before persistence.
package schema

import (
	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/core/table"
)

// Allowed returns stable followed by normalized, without duplicates.
func Allowed(stable, normalized []string) []string {
	allowed := make([]string, 0, len(stable)+len(normalized))
	seen := make(map[string]struct{}, len(stable)+len(normalized))
	for _, group := range [][]string{stable, normalized} {
		for _, name := range group {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			allowed = append(allowed, name)
		}
	}
	return allowed
}

// Enforce returns a new table holding exactly the stable and normalized
// columns, in that order. Every missing column is reported in a
// *core.SchemaViolationError. The output shape depends only on stable and
// normalized, never on the input's column order or extra columns.
func Enforce(t *table.Table, stable, normalized []string, tableName string) (*table.Table, error) {
	allowed := Allowed(stable, normalized)

	var missing []string
	for _, name := range allowed {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &core.SchemaViolationError{Table: tableName, Missing: missing}
	}

	return t.Select(allowed...)
}

// DropUnsafe returns a copy of t without the named columns. Columns already
// absent are ignored.
func DropUnsafe(t *table.Table, columns ...string) *table.Table {
	return t.Drop(columns...)
}
