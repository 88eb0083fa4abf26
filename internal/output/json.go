package output

import (
	"encoding/json"

	"github.com/gridfeed/gridfeed/internal/core/store"
)

// JSONFormatter renders reports as JSON, indented when Indent is set.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatSeason(result *SeasonResult) (string, error) {
	if result == nil || result.Report == nil {
		return "", nil
	}
	return f.marshal(newSeasonView(result))
}

// FormatRuns renders an empty list as [] rather than null.
func (f *JSONFormatter) FormatRuns(runs []store.RunRecord) (string, error) {
	if runs == nil {
		runs = []store.RunRecord{}
	}
	return f.marshal(runs)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	encode := json.Marshal
	if f.Indent {
		encode = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
	}
	data, err := encode(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
