package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm/internal/store"
)

// initStore validates cfg for mode and opens the configured store.
func initStore(ctx context.Context, mode string) (store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}
