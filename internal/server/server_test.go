package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfeed/gridfeed/internal/config"
	"github.com/gridfeed/gridfeed/internal/core/store"
	apperrors "github.com/gridfeed/gridfeed/internal/errors"
	"github.com/gridfeed/gridfeed/internal/server/handlers"
)

type fakeRuns struct {
	runs     []store.RunRecord
	failures map[string][]store.FailureRecord
	err      error
	limit    int
}

func (f *fakeRuns) ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error) {
	f.limit = limit
	return f.runs, f.err
}

func (f *fakeRuns) ListFailures(ctx context.Context, runID string, year int) ([]store.FailureRecord, error) {
	return f.failures[runID], f.err
}

func newTestServer(runs handlers.RunReader) *Server {
	return New(runs, Options{Host: "127.0.0.1", Build: config.BuildInfo{Version: "1.2.3", Commit: "abcd123"}})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(&fakeRuns{})

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeNotFound, body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)

	req = httptest.NewRequest(http.MethodPost, "/v1/runs", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, apperrors.CodeMethodNotAllowed, decodeError(t, rec).Error.Code)
}

func TestServerListsRuns(t *testing.T) {
	started := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	runs := &fakeRuns{runs: []store.RunRecord{{
		RunID:           "run-1",
		Year:            2023,
		TotalCandidates: 22,
		Successes:       21,
		Failures:        1,
		StartedAt:       started,
		CompletedAt:     started.Add(time.Minute),
	}}}
	srv := newTestServer(runs)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs?limit=5", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.limit)

	var body handlers.RunsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-1", body.Runs[0].RunID)
	assert.Equal(t, "21/22", body.Runs[0].Summary)
	assert.True(t, started.Equal(body.Runs[0].StartedAt))
}

func TestServerListsFailures(t *testing.T) {
	runs := &fakeRuns{failures: map[string][]store.FailureRecord{
		"run-1": {{Identifier: "4", EventName: "Azerbaijan Grand Prix", Message: "fetch failed"}},
	}}
	srv := newTestServer(runs)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/run-1/2023/failures", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body handlers.FailuresResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 2023, body.Year)
	require.Len(t, body.Failures, 1)
	assert.Equal(t, "Azerbaijan Grand Prix", body.Failures[0].EventName)
}

func TestServerMapsStoreErrors(t *testing.T) {
	srv := newTestServer(&fakeRuns{err: errors.New("database is locked")})

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeDatabase, body.Error.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body.Error.RequestID)
}

func TestServerHealthUsesRegisteredCheckers(t *testing.T) {
	srv := newTestServer(&fakeRuns{})
	srv.RegisterChecker("store", handlers.HealthCheckFunc(func(ctx context.Context) error {
		return errors.New("unreachable")
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv := newTestServer(&fakeRuns{})
	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestVersionReportsBuild(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeRuns{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.VersionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "1.2.3", resp.Build.Version)
	assert.Equal(t, "abcd123", resp.Build.Commit)
}
