package output

import (
	"fmt"
	"strings"

	"github.com/gridfeed/gridfeed/internal/core/store"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatSeason renders a season result as Markdown.
func (f *MarkdownFormatter) FormatSeason(result *SeasonResult) (string, error) {
	if result == nil || result.Report == nil {
		return "", nil
	}
	view := newSeasonView(result)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(seasonTitle(result.Report))))
	sb.WriteString("| Round | Event | Status | Notes |\n")
	sb.WriteString("|-------|-------|--------|-------|\n")

	for _, session := range view.Successes {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
			session.Round,
			escapeMarkdownCell(session.EventName),
			successStatus(session),
			escapeMarkdownCell(successNotes(session)),
		))
	}
	for _, failure := range view.Failures {
		sb.WriteString(fmt.Sprintf("| %s | %s | failed | %s |\n",
			failureRound(failure),
			escapeMarkdownCell(failureEvent(failure)),
			escapeMarkdownCell(failure.Message),
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Loaded**: %s\n", view.Summary))
	if view.Error != "" {
		sb.WriteString(fmt.Sprintf("\n**Error**: %s\n", escapeMarkdownCell(view.Error)))
	}
	return sb.String(), nil
}

// FormatRuns renders persisted runs as Markdown.
func (f *MarkdownFormatter) FormatRuns(runs []store.RunRecord) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Run | Year | Loaded | Failures | Started | Error |\n")
	sb.WriteString("|-----|------|--------|----------|---------|-------|\n")
	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %d | %s | %s |\n",
			run.RunID,
			run.Year,
			run.Summary(),
			run.Failures,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			escapeMarkdownCell(run.Error),
		))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
