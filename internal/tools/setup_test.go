package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/database"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/security"
	"github.com/movitransit/movi/internal/transit"
)

// testLogger returns a no-op logger for testing.
func testLogger() log.Logger {
	return log.NewNop()
}

// newTestSQLValidator returns the SQL validator with its default blocklist.
func newTestSQLValidator() *security.SQL {
	return security.NewSQL()
}

// newTestStore opens a fresh migrated SQLite database seeded with the demo
// dataset. Each caller gets its own database file.
func newTestStore(t *testing.T) *transit.Store {
	t.Helper()

	conn, err := database.Open(filepath.Join(t.TempDir(), "movi.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(conn.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := transit.NewStore(transit.StoreConfig{DB: conn, Logger: log.NewNop()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

// toolCtx builds the minimal tool context handlers need outside a Genkit run.
func toolCtx() *ai.ToolContext {
	return &ai.ToolContext{Context: context.Background()}
}
