package table

import (
	"fmt"
	"strings"
)

// NormalizeColumnName trims, lower-cases and replaces spaces with underscores.
func NormalizeColumnName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// NormalizeColumnNames returns a copy with every column name normalized. Two
// columns collapsing onto the same name is an error.
func NormalizeColumnNames(t *Table) (*Table, error) {
	mapping := make(map[string]string, len(t.Columns()))
	seen := make(map[string]string, len(t.Columns()))
	for _, name := range t.Columns() {
		normalized := NormalizeColumnName(name)
		if prev, dup := seen[normalized]; dup {
			return nil, fmt.Errorf("columns %q and %q both normalize to %q", prev, name, normalized)
		}
		seen[normalized] = name
		mapping[name] = normalized
	}
	return t.Rename(mapping)
}

// Chunk splits rows into consecutive groups of at most size rows.
func Chunk(rows [][]any, size int) [][][]any {
	if size < 1 {
		size = 1
	}
	chunks := make([][][]any, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
