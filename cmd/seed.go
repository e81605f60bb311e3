package cmd

import (
	"context"
	"fmt"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/config"
	"github.com/movitransit/movi/internal/database"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/transit"
)

// runSeed loads the demo transit dataset and exits. Migrations run
// first so the command works on a fresh database. A database that
// already has stops keeps its data.
func runSeed() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	conn, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := db.Migrate(conn.DB); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	store, err := transit.NewStore(transit.StoreConfig{DB: conn, Logger: logger})
	if err != nil {
		return fmt.Errorf("creating transit store: %w", err)
	}

	if err := store.Seed(context.Background()); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	fmt.Printf("Demo dataset ready: %s\n", cfg.DatabasePath)
	return nil
}
