package main

import (
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/gridfeed/gridfeed/internal/cmd"
	"github.com/gridfeed/gridfeed/internal/config"
)

// Stamped by the release build:
//
//	-ldflags "-X main.version=v0.4.0 -X main.commit=$(git rev-parse --short HEAD) -X main.buildDate=$(date -u +%FT%TZ)"
var (
	version   string
	commit    string
	buildDate string
)

func main() {
	config.SetBuild(version, commit, buildDate)
	if err := cmd.Execute(); err != nil {
		cmd.ExitWithCodeStderr(foundry.ExitFailure, config.AppName+" failed", err)
	}
}
