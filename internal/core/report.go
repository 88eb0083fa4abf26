package core

import (
	"fmt"
	"time"
)

// ItemResult is the outcome of one batch candidate: either a loaded session
// or the error that prevented it.
type ItemResult struct {
	Identifier Identifier
	EventName  string
	Session    Session
	Err        error
}

// OK reports whether the candidate loaded successfully.
func (r ItemResult) OK() bool {
	return r.Err == nil && r.Session != nil
}

// ItemFailure records one failed candidate in an ingestion report.
type ItemFailure struct {
	Identifier Identifier `json:"identifier"`
	EventName  string     `json:"event_name,omitempty"`
	Err        error      `json:"-"`
	Message    string     `json:"error"`
}

// IngestionReport summarizes one season's (or one year's explicit list of)
// load attempts. Successes and Failures keep candidate order.
type IngestionReport struct {
	RunID           string        `json:"run_id"`
	Year            int           `json:"year"`
	TotalCandidates int           `json:"total_candidates"`
	Successes       []Session     `json:"-"`
	Failures        []ItemFailure `json:"failures"`
	Err             error         `json:"-"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     time.Time     `json:"completed_at"`
}

// NewIngestionReport starts an empty report for a year.
func NewIngestionReport(runID string, year int, startedAt time.Time) *IngestionReport {
	return &IngestionReport{
		RunID:     runID,
		Year:      year,
		Successes: []Session{},
		Failures:  []ItemFailure{},
		StartedAt: startedAt,
	}
}

// Record appends one candidate outcome to the report.
func (r *IngestionReport) Record(result ItemResult) {
	if r == nil {
		return
	}
	r.TotalCandidates++
	if result.OK() {
		r.Successes = append(r.Successes, result.Session)
		return
	}
	err := result.Err
	if err == nil {
		err = fmt.Errorf("provider returned no session for %s", result.Identifier)
	}
	r.Failures = append(r.Failures, ItemFailure{
		Identifier: result.Identifier,
		EventName:  result.EventName,
		Err:        err,
		Message:    err.Error(),
	})
}

// Complete stamps the completion time. The report must not be mutated after.
func (r *IngestionReport) Complete(at time.Time) {
	if r == nil {
		return
	}
	r.CompletedAt = at
}

// SuccessCount returns the number of sessions loaded.
func (r *IngestionReport) SuccessCount() int {
	if r == nil {
		return 0
	}
	return len(r.Successes)
}

// Summary renders "{successes}/{total}".
func (r *IngestionReport) Summary() string {
	if r == nil {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", len(r.Successes), r.TotalCandidates)
}

// ErrorMessage returns the season-level error text, if any.
func (r *IngestionReport) ErrorMessage() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
