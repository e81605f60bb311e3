package cmd

import (
	"fmt"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/config"
	"github.com/movitransit/movi/internal/database"
)

// runMigrate applies pending database migrations and exits.
// The serve command migrates on startup too; this exists for operators
// who want to prepare the database ahead of a deploy.
func runMigrate() error {
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

	fmt.Printf("Database schema up to date: %s\n", cfg.DatabasePath)
	return nil
}
