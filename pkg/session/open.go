package session

import (
	"context"

	"github.com/matzehuels/wsm/pkg/config"
	errs "github.com/matzehuels/wsm/pkg/errors"
)

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case config.StoreFile:
		store, err = NewFileStore(cfg.Path)
	case config.StoreBadger:
		store, err = NewBadgerStore(cfg.Path)
	case config.StoreMongo:
		store, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
