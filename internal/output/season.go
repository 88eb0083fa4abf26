package output

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gridfeed/gridfeed/internal/core"
)

// SeasonResult pairs an ingestion report with what the pipeline did with
// its sessions.
type SeasonResult struct {
	Report *core.IngestionReport
	// Rows counts rows written per table kind, keyed by position in
	// Report.Successes so repeated candidates for one race stay apart.
	Rows map[int]map[string]int
	// ProcessErrors holds pipeline failures, keyed like Rows.
	ProcessErrors map[int]error
}

type sessionView struct {
	Round     int            `json:"round"`
	EventName string         `json:"event_name"`
	RaceID    string         `json:"race_id"`
	Rows      map[string]int `json:"rows,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type seasonView struct {
	RunID           string             `json:"run_id"`
	Year            int                `json:"year"`
	Summary         string             `json:"summary"`
	TotalCandidates int                `json:"total_candidates"`
	Successes       []sessionView      `json:"successes"`
	Failures        []core.ItemFailure `json:"failures"`
	Error           string             `json:"error,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     time.Time          `json:"completed_at"`
}

func newSeasonView(result *SeasonResult) seasonView {
	report := result.Report
	view := seasonView{
		RunID:           report.RunID,
		Year:            report.Year,
		Summary:         report.Summary(),
		TotalCandidates: report.TotalCandidates,
		Successes:       make([]sessionView, 0, len(report.Successes)),
		Failures:        report.Failures,
		Error:           report.ErrorMessage(),
		StartedAt:       report.StartedAt,
		CompletedAt:     report.CompletedAt,
	}
	if view.Failures == nil {
		view.Failures = []core.ItemFailure{}
	}
	for i, session := range report.Successes {
		view.Successes = append(view.Successes, result.sessionView(i, session))
	}
	return view
}

func (r *SeasonResult) sessionView(index int, session core.Session) sessionView {
	view := sessionView{
		Round:     session.Round(),
		EventName: session.EventName(),
		RaceID:    core.RaceID(session.Season(), session.Round()),
		Rows:      r.Rows[index],
	}
	if err := r.ProcessErrors[index]; err != nil {
		view.Error = err.Error()
	}
	return view
}

func successStatus(view sessionView) string {
	if view.Error != "" {
		return "rejected"
	}
	return "loaded"
}

func successNotes(view sessionView) string {
	if view.Error != "" {
		return view.Error
	}
	if len(view.Rows) == 0 {
		return view.RaceID
	}
	kinds := make([]string, 0, len(view.Rows))
	for kind := range view.Rows {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	parts := make([]string, 0, len(kinds)+1)
	parts = append(parts, view.RaceID)
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, view.Rows[kind]))
	}
	return strings.Join(parts, " ")
}

func seasonTitle(report *core.IngestionReport) string {
	return fmt.Sprintf("%d season", report.Year)
}

func failureRound(failure core.ItemFailure) string {
	if round, ok := failure.Identifier.Round(); ok {
		return fmt.Sprintf("%d", round)
	}
	return ""
}

func failureEvent(failure core.ItemFailure) string {
	if failure.EventName != "" {
		return failure.EventName
	}
	if name, ok := failure.Identifier.Event(); ok {
		return name
	}
	return ""
}
