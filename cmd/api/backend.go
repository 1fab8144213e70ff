package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/database"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/filestore"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/gormstore"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/memstore"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/mongostore"
)

// openStore connects the document store selected by cfg.Store.Driver.
// migrate runs the idempotent schema setup for backends that have one.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil

	case config.DriverPostgres:
		db, err := database.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.Migrate(db); err != nil {
				_ = database.Close(db)
				return nil, err
			}
		}
		return gormstore.New(db), nil

	case config.DriverMongo:
		db, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.ProvisionMongo(ctx, db); err != nil {
				_ = db.Client().Disconnect(ctx)
				return nil, err
			}
		}
		return mongostore.New(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// openFiles prepares the attachment bucket on local disk.
func openFiles(ctx context.Context, cfg *config.Config) (*filestore.Store, error) {
	files := filestore.New(cfg.Files.Root)
	if err := files.EnsureBucket(ctx, cfg.AttachmentBucket()); err != nil {
		return nil, err
	}
	return files, nil
}
