package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/gridfeed/gridfeed/internal/config"
	"github.com/gridfeed/gridfeed/internal/core/store"
	errwrap "github.com/gridfeed/gridfeed/internal/errors"
	"github.com/gridfeed/gridfeed/internal/observability"
)

// openStore connects to the configured store and applies pending migrations.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s store: %w", db.Driver(), err)
	}
	return db, nil
}

// mustOpenStore is openStore for commands that cannot run without the
// store; failure exits with ExitFailure.
func mustOpenStore(ctx context.Context, cfg *config.Config) *store.Store {
	db, err := openStore(ctx, cfg)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Failed to open store", errwrap.WrapDatabaseError(ctx, err, "store unavailable"))
	}
	return db
}
