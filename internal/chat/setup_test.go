package chat

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/agent"
	"github.com/movitransit/movi/internal/database"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/security"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/testutil"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// mockFallback is what the mock model answers when no rule matches.
const mockFallback = "I checked the transit data but found nothing relevant."

// testEnv wires a full agent against a seeded SQLite database and the
// mock model, with every real tool registered. Each test gets its own
// database file and mock, so rules never leak across tests.
type testEnv struct {
	g        *genkit.Genkit
	mock     *testutil.MockLLM
	agent    *Agent
	sessions *session.Store
	store    *transit.Store
	fleet    *tools.FleetToolset
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithFallback(t, mockFallback)
}

func newTestEnvWithFallback(t *testing.T, fallback string) *testEnv {
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
	mock := testutil.NewMockLLM(fallback)
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

	a, err := New(Config{
		Genkit:          g,
		Sessions:        sessions,
		Transit:         store,
		Fleet:           fleet,
		Logger:          log.NewNop(),
		Tools:           tools.NewRegistry(g).All(ctx),
		ModelName:       "mock/test-model",
		PromptValidator: security.NewPromptValidator(),
		RetryConfig: RetryConfig{
			MaxRetries:      1,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	return &testEnv{
		g:        g,
		mock:     mock,
		agent:    a,
		sessions: sessions,
		store:    store,
		fleet:    fleet,
	}
}

// removeVehicleRequest builds the tool request the mock model emits when a
// test drives the removal flow.
func removeVehicleRequest(trip string) *ai.ToolRequest {
	return &ai.ToolRequest{
		Name: tools.ToolRemoveVehicleFromTrip,
		Ref:  "call-1",
		Input: map[string]any{
			"trip_display_name": trip,
			"force":             false,
		},
	}
}

// deploymentCount counts live deployments, the cheapest way to check
// whether a removal actually happened.
func deploymentCount(t *testing.T, env *testEnv) int {
	t.Helper()
	var n int
	if err := env.store.DB().GetContext(context.Background(), &n,
		`SELECT COUNT(*) FROM deployments`); err != nil {
		t.Fatalf("count deployments: %v", err)
	}
	return n
}

// eventCollector gathers stream events for assertions.
type eventCollector struct {
	events []agent.Event
}

func (c *eventCollector) callback() StreamCallback {
	return func(_ context.Context, ev agent.Event) error {
		c.events = append(c.events, ev)
		return nil
	}
}

// types returns the event type sequence, collapsing runs of text chunks.
func (c *eventCollector) types() []string {
	var out []string
	for _, ev := range c.events {
		kind := string(ev.Type)
		if len(out) > 0 && out[len(out)-1] == kind && ev.Type == agent.EventText {
			continue
		}
		out = append(out, kind)
	}
	return out
}

// text concatenates the streamed text chunks.
func (c *eventCollector) text() string {
	var sb strings.Builder
	for _, ev := range c.events {
		if ev.Type == agent.EventText {
			sb.WriteString(ev.Text)
		}
	}
	return sb.String()
}

// confirmation returns the first confirmation event, if any.
func (c *eventCollector) confirmation() *agent.PendingConfirmation {
	for _, ev := range c.events {
		if ev.Type == agent.EventConfirmation {
			return ev.Confirmation
		}
	}
	return nil
}
