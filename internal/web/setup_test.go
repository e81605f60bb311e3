package web

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/database"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/transit"
)

// stubAPI stands in for the mounted API handler and records which paths
// reached it. The API's own behavior is covered by internal/api tests.
type stubAPI struct {
	mu    sync.Mutex
	paths []string
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"data":"stub"}`))
}

func (s *stubAPI) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// console wires the web server against a migrated SQLite database and
// the stub API. Unlike the api tests nothing here touches the chat flow
// singleton, so console tests run in parallel.
type console struct {
	server *Server
	store  *transit.Store
	api    *stubAPI
	conn   *sqlx.DB
}

func newConsole(t *testing.T) *console {
	t.Helper()
	return newConsoleWith(t, true)
}

func newConsoleWith(t *testing.T, seed bool) *console {
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
		t.Fatalf("new transit store: %v", err)
	}
	if seed {
		if err := store.Seed(context.Background()); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	api := &stubAPI{}
	server, err := NewServer(Config{
		Logger: log.NewNop(),
		Store:  store,
		API:    api,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	return &console{server: server, store: store, api: api, conn: conn}
}
