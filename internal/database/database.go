// Package database opens the SQLite database backing the operator console.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// Open opens the SQLite database at dbPath with foreign key enforcement on.
// The parent directory is created if missing.
func Open(dbPath string) (*sqlx.DB, error) {
	// Ensure parent directory exists (using stricter permissions)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// A single writer keeps SQLite happy under the HTTP server's parallelism.
	db.SetMaxOpenConns(1)

	return db, nil
}
