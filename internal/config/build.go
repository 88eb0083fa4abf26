package config

import (
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
)

// BuildInfo is the metadata stamped into the binary at link time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// Build holds the running binary's metadata. Unset fields read "dev" and
// "unknown".
var Build = BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}

// SetBuild replaces Build; empty arguments keep the current value.
func SetBuild(version, commit, buildDate string) {
	if version != "" {
		Build.Version = version
	}
	if commit != "" {
		Build.Commit = commit
	}
	if buildDate != "" {
		Build.BuildDate = buildDate
	}
}

// Toolchain describes the runtime and the fulmen libraries compiled in.
type Toolchain struct {
	Go       string `json:"go"`
	Platform string `json:"platform"`
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

// CurrentToolchain reports the toolchain of the running binary.
func CurrentToolchain() Toolchain {
	v := crucible.GetVersion()
	return Toolchain{
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Gofulmen: v.Gofulmen,
		Crucible: v.Crucible,
	}
}
