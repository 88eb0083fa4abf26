package output

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gridfeed/gridfeed/internal/core/store"
)

// Format selects how reports are rendered.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// formatAliases maps accepted spellings to formats. The empty string is the
// table default.
var formatAliases = map[string]Format{
	"":         FormatTable,
	"table":    FormatTable,
	"text":     FormatTable,
	"json":     FormatJSON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
}

// Formatter renders season results and persisted runs.
type Formatter interface {
	FormatSeason(result *SeasonResult) (string, error)
	FormatRuns(runs []store.RunRecord) (string, error)
}

// ParseFormat resolves a --output value, case-insensitively.
func ParseFormat(value string) (Format, error) {
	if format, ok := formatAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return format, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want one of %s)", value, strings.Join(Formats(), ", "))
}

// Formats lists the canonical format names.
func Formats() []string {
	names := []string{string(FormatTable), string(FormatJSON), string(FormatMarkdown)}
	slices.Sort(names)
	return names
}

// NewFormatter returns the formatter for format; unknown formats render as
// tables.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// FormatSeasonList renders several seasons. JSON output is one array; the
// other formats join per-season blocks with a blank line. Nil results and
// empty renderings are skipped.
func FormatSeasonList(format Format, results []*SeasonResult) (string, error) {
	if format == FormatJSON {
		views := make([]seasonView, 0, len(results))
		for _, result := range results {
			if result != nil && result.Report != nil {
				views = append(views, newSeasonView(result))
			}
		}
		return (&JSONFormatter{Indent: true}).marshal(views)
	}

	formatter := NewFormatter(format)
	blocks := make([]string, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		block, err := formatter.FormatSeason(result)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}
