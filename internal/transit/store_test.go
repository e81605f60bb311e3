package transit

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/database"
	"github.com/movitransit/movi/internal/log"
)

// newTestStore opens a fresh SQLite database in a temp dir, migrates it and
// seeds the demo data.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	conn, err := database.Open(filepath.Join(t.TempDir(), "movi.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(conn.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := NewStore(StoreConfig{DB: conn, Logger: log.NewNop()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestNewStoreRequiresDB(t *testing.T) {
	_, err := NewStore(StoreConfig{Logger: log.NewNop()})
	if err == nil {
		t.Fatal("expected error for nil database")
	}
}

func TestNewStoreNilLoggerPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil logger")
		}
	}()
	_, _ = NewStore(StoreConfig{})
}

func TestSeedReferentialIntegrity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CheckReferentialIntegrity(ctx); err != nil {
		t.Fatalf("seeded database has integrity violations: %v", err)
	}

	// Every deployment must point at an existing trip, vehicle and driver.
	var dangling int
	err := store.db.GetContext(ctx, &dangling, `
		SELECT COUNT(*) FROM deployments d
		LEFT JOIN daily_trips t ON t.trip_id = d.trip_id
		LEFT JOIN vehicles v ON v.vehicle_id = d.vehicle_id
		LEFT JOIN drivers dr ON dr.driver_id = d.driver_id
		WHERE t.trip_id IS NULL OR v.vehicle_id IS NULL OR dr.driver_id IS NULL`)
	if err != nil {
		t.Fatalf("count dangling deployments: %v", err)
	}
	if dangling != 0 {
		t.Errorf("found %d deployments with dangling references", dangling)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	stops, err := store.Stops(ctx)
	if err != nil {
		t.Fatalf("list stops: %v", err)
	}
	if len(stops) != 5 {
		t.Errorf("stops after double seed = %d, want 5", len(stops))
	}
}

func TestSeedCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		table string
		want  int
	}{
		{"stops", 5},
		{"paths", 2},
		{"path_stops", 6},
		{"routes", 3},
		{"vehicles", 3},
		{"drivers", 3},
		{"daily_trips", 3},
		{"deployments", 2},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			var got int
			if err := store.db.GetContext(ctx, &got, `SELECT COUNT(*) FROM `+tt.table); err != nil {
				t.Fatalf("count %s: %v", tt.table, err)
			}
			if got != tt.want {
				t.Errorf("%s rows = %d, want %d", tt.table, got, tt.want)
			}
		})
	}
}

func TestSchemaDDL(t *testing.T) {
	store := newTestStore(t)

	ddl, err := store.SchemaDDL(context.Background())
	if err != nil {
		t.Fatalf("schema ddl: %v", err)
	}

	for _, table := range []string{"stops", "paths", "path_stops", "routes", "vehicles", "drivers", "daily_trips", "deployments"} {
		if !strings.Contains(ddl, "-- Table: "+table+"\n") {
			t.Errorf("schema ddl missing header for table %q", table)
		}
		if !strings.Contains(ddl, "CREATE TABLE "+table) {
			t.Errorf("schema ddl missing table %q", table)
		}
	}
	if strings.Contains(ddl, "schema_migrations") {
		t.Error("schema ddl should not expose migration bookkeeping")
	}
}
