package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/gridfeed/gridfeed/internal/errors"
)

func TestRecoveryWritesInternalError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := RequestID(Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	req.Header.Set(RequestIDHeader, "req-9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, apperrors.CodeInternal, body.Error.Code)
	assert.Equal(t, "panic: boom", body.Error.Message)
	assert.Equal(t, "req-9", body.Error.RequestID)
	assert.NotContains(t, rec.Body.String(), "stack_trace")

	panics := logs.FilterMessage("Recovered handler panic").All()
	require.Len(t, panics, 1)
	assert.Contains(t, panics[0].ContextMap()["stack_trace"], "recovery_test.go")
}
