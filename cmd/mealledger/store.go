package main

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/mealledger/internal/config"
	"github.com/xraph/mealledger/store"
	"github.com/xraph/mealledger/store/memory"
	"github.com/xraph/mealledger/store/mongo"
	"github.com/xraph/mealledger/store/postgres"
	"github.com/xraph/mealledger/store/sqlite"
)

// openStore connects the configured backend. The DSN for mongo must name
// the database in its path.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memory.New(), nil

	case "postgres":
		drv := pgdriver.New()
		if err := drv.Open(ctx, cfg.Store.DSN); err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgres.New(db), nil

	case "sqlite":
		drv := sqlitedriver.New()
		if err := drv.Open(ctx, cfg.Store.DSN); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlite.New(db), nil

	case "mongo":
		drv := mongodriver.New()
		if err := drv.Open(ctx, cfg.Store.DSN); err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		return mongo.New(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
