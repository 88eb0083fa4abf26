package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gridfeed/gridfeed/internal/core/store"
	apperrors "github.com/gridfeed/gridfeed/internal/errors"
)

// MaxRunListLimit caps the limit query parameter.
const MaxRunListLimit = 200

// RunReader reads recorded ingestion runs.
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error)
	ListFailures(ctx context.Context, runID string, year int) ([]store.FailureRecord, error)
}

// RunsResponse lists recorded season reports, newest first.
type RunsResponse struct {
	Runs []RunView `json:"runs"`
}

// RunView is one season report with its loaded/total summary.
type RunView struct {
	store.RunRecord
	Summary string `json:"summary"`
}

// FailuresResponse lists the failed candidates of one run and season.
type FailuresResponse struct {
	RunID    string                `json:"run_id"`
	Year     int                   `json:"year"`
	Failures []store.FailureRecord `json:"failures"`
}

// RunsHandler serves the run history endpoints.
type RunsHandler struct {
	reader  RunReader
	respond ErrorResponder
}

// NewRunsHandler creates a handler reading from reader.
func NewRunsHandler(reader RunReader, respond ErrorResponder) *RunsHandler {
	return &RunsHandler{reader: reader, respond: respond}
}

// List handles GET /v1/runs?limit=N.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultRunListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxRunListLimit {
			h.respond(w, r, apperrors.NewInvalidInputError("limit must be between 1 and "+strconv.Itoa(MaxRunListLimit)))
			return
		}
		limit = parsed
	}

	records, err := h.reader.ListRuns(r.Context(), limit)
	if err != nil {
		h.respond(w, r, apperrors.WrapDatabaseError(r.Context(), err, "list runs failed"))
		return
	}

	views := make([]RunView, 0, len(records))
	for _, record := range records {
		views = append(views, RunView{RunRecord: record, Summary: record.Summary()})
	}
	respondJSON(w, http.StatusOK, RunsResponse{Runs: views})
}

// Failures handles GET /v1/runs/{runID}/{year}/failures.
func (h *RunsHandler) Failures(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		h.respond(w, r, apperrors.NewInvalidInputError("year must be a positive integer"))
		return
	}

	failures, err := h.reader.ListFailures(r.Context(), runID, year)
	if err != nil {
		h.respond(w, r, apperrors.WrapDatabaseError(r.Context(), err, "list failures failed"))
		return
	}
	if failures == nil {
		failures = []store.FailureRecord{}
	}
	respondJSON(w, http.StatusOK, FailuresResponse{RunID: runID, Year: year, Failures: failures})
}
