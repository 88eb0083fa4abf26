package handlers

import (
	"net/http"
	"runtime"

	"github.com/gridfeed/gridfeed/internal/config"
)

// VersionResponse is the /version body.
type VersionResponse struct {
	Name       string           `json:"name"`
	Build      config.BuildInfo `json:"build"`
	Toolchain  config.Toolchain `json:"toolchain"`
	NumCPU     int              `json:"num_cpu"`
	Goroutines int              `json:"goroutines"`
}

// NewVersionHandler serves build for every request. Toolchain details are
// read once; goroutine counts are live.
func NewVersionHandler(build config.BuildInfo) http.HandlerFunc {
	toolchain := config.CurrentToolchain()
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, VersionResponse{
			Name:       config.AppName,
			Build:      build,
			Toolchain:  toolchain,
			NumCPU:     runtime.NumCPU(),
			Goroutines: runtime.NumGoroutine(),
		})
	}
}
