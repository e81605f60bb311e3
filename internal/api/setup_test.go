package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/chat"
	"github.com/movitransit/movi/internal/database"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/security"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/speech"
	"github.com/movitransit/movi/internal/testutil"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// testServer wires the full API against a seeded SQLite database and the
// mock model. Tests that build one share the chat flow singleton, so
// none of them run in parallel.
type testServer struct {
	server   *Server
	mock     *testutil.MockLLM
	flow     *chat.Flow
	agent    *chat.Agent
	sessions *session.Store
	store    *transit.Store
	fleet    *tools.FleetToolset
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the server config after the
// defaults are filled in, for speech and rate limit scenarios.
func newTestServerWith(t *testing.T, mutate func(*Config)) *testServer {
	t.Helper()
	ctx := context.Background()

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
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sessions, err := session.New(conn, log.NewNop())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}

	g := genkit.Init(ctx)
	mock := testutil.NewMockLLM("I checked the transit data but found nothing relevant.")
	mock.RegisterModel(g)

	fleet, err := tools.NewFleetToolset(store, log.NewNop())
	if err != nil {
		t.Fatalf("new fleet toolset: %v", err)
	}
	network, err := tools.NewNetworkToolset(store, log.NewNop())
	if err != nil {
		t.Fatalf("new network toolset: %v", err)
	}
	query, err := tools.NewQueryToolset(store, security.NewSQL(), log.NewNop())
	if err != nil {
		t.Fatalf("new query toolset: %v", err)
	}
	if err := tools.Register(g, fleet, network, query); err != nil {
		t.Fatalf("register tools: %v", err)
	}

	agent, err := chat.New(chat.Config{
		Genkit:    g,
		Sessions:  sessions,
		Transit:   store,
		Fleet:     fleet,
		Logger:    log.NewNop(),
		Tools:     tools.NewRegistry(g).All(ctx),
		ModelName: "mock/test-model",
		RetryConfig: chat.RetryConfig{
			MaxRetries:      1,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	chat.ResetFlowForTesting()
	t.Cleanup(chat.ResetFlowForTesting)
	flow := chat.NewFlow(g, agent)

	cfg := Config{
		Logger:         log.NewNop(),
		Flow:           flow,
		Agent:          agent,
		Sessions:       sessions,
		Store:          store,
		Fleet:          fleet,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	return &testServer{
		server:   server,
		mock:     mock,
		flow:     flow,
		agent:    agent,
		sessions: sessions,
		store:    store,
		fleet:    fleet,
	}
}

// baseConfig rebuilds a valid server config from the env's pieces, for
// tests that poke at validation.
func (ts *testServer) baseConfig() Config {
	return Config{
		Logger:   log.NewNop(),
		Flow:     ts.flow,
		Agent:    ts.agent,
		Sessions: ts.sessions,
		Store:    ts.store,
		Fleet:    ts.fleet,
	}
}

// fakeSpeech builds a speech service against a stub of the OpenAI audio
// endpoints, for wiring into the server under test.
func fakeSpeech(t *testing.T, baseURL string) *speech.Service {
	t.Helper()
	return speech.New(speech.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Logger:  log.NewNop(),
	})
}

// removalToolRequest is what the mock model emits to drive the
// dangerous-removal flow through chat.
func removalToolRequest(trip string) *ai.ToolRequest {
	return &ai.ToolRequest{
		Name: tools.ToolRemoveVehicleFromTrip,
		Ref:  "call-1",
		Input: map[string]any{
			"trip_display_name": trip,
			"force":             false,
		},
	}
}

// deploymentCount counts live deployments straight off the database.
func deploymentCount(t *testing.T, ts *testServer) int {
	t.Helper()
	var n int
	if err := ts.store.DB().GetContext(context.Background(), &n,
		`SELECT COUNT(*) FROM deployments`); err != nil {
		t.Fatalf("count deployments: %v", err)
	}
	return n
}
