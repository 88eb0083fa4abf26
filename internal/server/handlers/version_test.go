package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfeed/gridfeed/internal/config"
)

func TestVersionHandlerIncludesBuildMetadata(t *testing.T) {
	handler := NewVersionHandler(config.BuildInfo{Version: "1.2.3", Commit: "abcd123", BuildDate: "2025-11-07T12:00:00Z"})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp VersionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "gridfeed", resp.Name)
	assert.Equal(t, "1.2.3", resp.Build.Version)
	assert.Equal(t, "abcd123", resp.Build.Commit)
	assert.Equal(t, "2025-11-07T12:00:00Z", resp.Build.BuildDate)
	assert.NotEmpty(t, resp.Toolchain.Go)
	assert.NotEmpty(t, resp.Toolchain.Gofulmen)
	assert.Positive(t, resp.NumCPU)
}
