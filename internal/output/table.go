package output

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gridfeed/gridfeed/internal/core/store"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatSeason renders a season result as a table.
func (f *TableFormatter) FormatSeason(result *SeasonResult) (string, error) {
	if result == nil || result.Report == nil {
		return "", nil
	}
	view := newSeasonView(result)

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(seasonTitle(result.Report))
	t.AppendHeader(table.Row{"Round", "Event", "Status", "Notes"})

	for _, session := range view.Successes {
		t.AppendRow(table.Row{
			strconv.Itoa(session.Round),
			session.EventName,
			successStatus(session),
			successNotes(session),
		})
	}
	for _, failure := range view.Failures {
		t.AppendRow(table.Row{
			failureRound(failure),
			failureEvent(failure),
			"failed",
			failure.Message,
		})
	}
	if view.Error != "" {
		t.AppendRow(table.Row{"", "schedule", "error", view.Error})
	}

	t.AppendFooter(table.Row{
		"",
		"",
		fmt.Sprintf("%s loaded", view.Summary),
		view.RunID,
	})

	return t.Render(), nil
}

// FormatRuns renders persisted runs as a table.
func (f *TableFormatter) FormatRuns(runs []store.RunRecord) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Run", "Year", "Loaded", "Failures", "Started", "Error"})

	for _, run := range runs {
		t.AppendRow(table.Row{
			run.RunID,
			strconv.Itoa(run.Year),
			run.Summary(),
			strconv.Itoa(run.Failures),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Error,
		})
	}

	return t.Render(), nil
}
