package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/pkg/storage"
	"github.com/goliatone/go-formbuilder/pkg/storage/filestore"
	"github.com/goliatone/go-formbuilder/pkg/storage/sqlstore"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// sqliteFile is the database created inside storage.path by the sqlite driver.
const sqliteFile = "formbuilder.db"

// Store opens the configured persister on first use and returns the hydrated
// store. The persister is closed by the root post-run.
func (o *RootOptions) Store(ctx context.Context) (*store.Store, error) {
	if o.store != nil {
		return o.store, nil
	}
	persister, closer, err := openPersister(o.Config.Storage)
	if err != nil {
		return nil, err
	}
	o.closer = closer
	o.store = store.New(ctx,
		store.WithPersister(persister),
		store.WithStorageKey(o.Config.Storage.Key),
		store.WithLogger(o.Logger),
	)
	return o.store, nil
}

func openPersister(cfg config.StorageConfig) (storage.Persister, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemory(), nil, nil
	case config.DriverSQLite:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}
		db, err := sqlstore.Open(filepath.Join(cfg.Path, sqliteFile))
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.DriverFile, "":
		return filestore.New(cfg.Path), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
