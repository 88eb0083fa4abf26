package table

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes column names and cell contents in order. Equal tables
// yield equal fingerprints across runs; used for change detection.
func Fingerprint(t *Table) string {
	h := xxh3.New()
	for _, name := range t.Columns() {
		_, _ = h.WriteString(name)
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{1})
	for i := 0; i < t.Len(); i++ {
		for _, cell := range t.Row(i) {
			_, _ = h.WriteString(cellKey(cell))
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{1})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func cellKey(v any) string {
	if v == nil {
		return "\x00nil"
	}
	return fmt.Sprintf("%T:%v", v, v)
}
