package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/movitransit/movi/internal/agent"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// 1x1 transparent PNG, enough for the magic-byte check.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// TestConfigValidate tests that each validation check in Config.validate()
// fires independently. Each case provides enough deps to pass prior checks.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// Minimal non-nil stubs, validate() only checks nil and never dereferences.
	stubG := new(genkit.Genkit)
	stubSessions := new(session.Store)
	stubTransit := new(transit.Store)
	stubFleet := new(tools.FleetToolset)
	stubLogger := log.NewNop()

	tests := []struct {
		name        string
		cfg         Config
		errContains string
	}{
		{
			name:        "nil genkit",
			cfg:         Config{},
			errContains: "genkit instance is required",
		},
		{
			name:        "nil session store",
			cfg:         Config{Genkit: stubG},
			errContains: "session store is required",
		},
		{
			name: "nil transit store",
			cfg: Config{
				Genkit:   stubG,
				Sessions: stubSessions,
			},
			errContains: "transit store is required",
		},
		{
			name: "nil fleet toolset",
			cfg: Config{
				Genkit:   stubG,
				Sessions: stubSessions,
				Transit:  stubTransit,
			},
			errContains: "fleet toolset is required",
		},
		{
			name: "nil logger",
			cfg: Config{
				Genkit:   stubG,
				Sessions: stubSessions,
				Transit:  stubTransit,
				Fleet:    stubFleet,
			},
			errContains: "logger is required",
		},
		{
			name: "empty tools",
			cfg: Config{
				Genkit:   stubG,
				Sessions: stubSessions,
				Transit:  stubTransit,
				Fleet:    stubFleet,
				Logger:   stubLogger,
				Tools:    []ai.ToolRef{},
			},
			errContains: "at least one tool is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.validate()
			if err == nil {
				t.Fatal("validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("validate() error = %q, want to contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	env := newTestEnv(t)

	a, err := New(Config{
		Genkit:   env.g,
		Sessions: env.sessions,
		Transit:  env.store,
		Fleet:    env.fleet,
		Logger:   log.NewNop(),
		Tools:    env.agent.toolRefs,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.modelName != DefaultModelName {
		t.Errorf("modelName = %q, want %q", a.modelName, DefaultModelName)
	}
	if a.maxTurns != 5 {
		t.Errorf("maxTurns = %d, want 5", a.maxTurns)
	}
	if a.historyLimit != session.DefaultHistoryLimit {
		t.Errorf("historyLimit = %d, want %d", a.historyLimit, session.DefaultHistoryLimit)
	}
	if a.circuitBreaker == nil || a.rateLimiter == nil {
		t.Error("resilience defaults not applied")
	}
	if a.tokenBudget.MaxHistoryTokens != DefaultTokenBudget().MaxHistoryTokens {
		t.Errorf("tokenBudget = %d, want default", a.tokenBudget.MaxHistoryTokens)
	}
}

func TestExecuteRejectsEmptyQuery(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.agent.Execute(context.Background(), Request{
		SessionID: uuid.New(),
		Query:     "   ",
	})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Execute() error = %v, want ErrEmptyQuery", err)
	}
}

func TestExecuteRejectsMissingSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.agent.Execute(context.Background(), Request{
		Query: "how many trips today",
	})
	if !errors.Is(err, agent.ErrInvalidSession) {
		t.Errorf("Execute() error = %v, want ErrInvalidSession", err)
	}
}

func TestExecuteTextTurn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID := uuid.New()

	env.mock.AddResponse("how many trips", "There are 3 trips scheduled today.")

	resp, err := env.agent.Execute(ctx, Request{
		SessionID: sessionID,
		Query:     "How many trips run today?",
		Page:      agent.PageBusDashboard,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.FinalText != "There are 3 trips scheduled today." {
		t.Errorf("FinalText = %q", resp.FinalText)
	}
	if resp.Interrupted() {
		t.Error("plain text turn reported as interrupted")
	}

	// The turn is persisted against the reported page.
	sess, err := env.sessions.Session(ctx, sessionID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess.Page != agent.PageBusDashboard {
		t.Errorf("session page = %q, want %q", sess.Page, agent.PageBusDashboard)
	}

	msgs, err := env.sessions.Messages(ctx, sessionID, 10, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != session.RoleUser || msgs[1].Role != session.RoleModel {
		t.Errorf("roles = %q, %q, want user, model", msgs[0].Role, msgs[1].Role)
	}
}

func TestExecuteSystemPromptCarriesSchemaAndPage(t *testing.T) {
	env := newTestEnv(t)

	env.mock.AddResponse("paths", "Two paths exist.")

	_, err := env.agent.Execute(context.Background(), Request{
		SessionID: uuid.New(),
		Query:     "list the paths",
		Page:      agent.PageManageRoute,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	calls := env.mock.Calls()
	if len(calls) == 0 {
		t.Fatal("mock model was never called")
	}
	system := calls[0].System
	for _, want := range []string{
		"You are Movi, the transport manager assistant",
		"-- Table: stops",
		"-- Table: daily_trips",
		"Current UI Page: manageRoute",
		"TRIBAL KNOWLEDGE",
	} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestExecuteUnknownPageCollapses(t *testing.T) {
	env := newTestEnv(t)

	env.mock.AddResponse("hello", "Hello, operator.")

	_, err := env.agent.Execute(context.Background(), Request{
		SessionID: uuid.New(),
		Query:     "hello",
		Page:      "evil'); DROP TABLE stops;--",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	calls := env.mock.Calls()
	if !strings.Contains(calls[0].System, "Current UI Page: unknown") {
		t.Error("free-form page string reached the system prompt")
	}
}

func TestExecuteFallbackOnEmptyResponse(t *testing.T) {
	// No rules and an empty mock fallback: the model returns nothing at all.
	env := newTestEnvWithFallback(t, "")

	resp, err := env.agent.Execute(context.Background(), Request{
		SessionID: uuid.New(),
		Query:     "anything",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.FinalText != fallbackResponseMessage {
		t.Errorf("FinalText = %q, want fallback message", resp.FinalText)
	}
}

func TestExecuteStreamEmitsTextChunks(t *testing.T) {
	env := newTestEnv(t)
	collector := &eventCollector{}

	env.mock.AddResponse("drivers", "Amit, Rahul, and Sneha drive for you.")

	resp, err := env.agent.ExecuteStream(context.Background(), Request{
		SessionID: uuid.New(),
		Query:     "who are my drivers",
	}, collector.callback())
	if err != nil {
		t.Fatalf("ExecuteStream() error = %v", err)
	}
	if collector.text() != resp.FinalText {
		t.Errorf("streamed %q, final %q", collector.text(), resp.FinalText)
	}
}

func TestExecuteToolTurn(t *testing.T) {
	env := newTestEnv(t)
	collector := &eventCollector{}

	env.mock.AddToolResponse("unassigned", []*ai.ToolRequest{{
		Name:  tools.ToolCountUnassignedVehicles,
		Ref:   "call-1",
		Input: map[string]any{},
	}}, "")
	env.mock.AddResponse("unassigned", "One spare cab: KA-05-9999.")

	resp, err := env.agent.ExecuteStream(context.Background(), Request{
		SessionID: uuid.New(),
		Query:     "any unassigned vehicles?",
		Page:      agent.PageBusDashboard,
	}, collector.callback())
	if err != nil {
		t.Fatalf("ExecuteStream() error = %v", err)
	}
	if resp.FinalText != "One spare cab: KA-05-9999." {
		t.Errorf("FinalText = %q", resp.FinalText)
	}

	// The real registered tool ran, and its lifecycle reached the stream.
	var sawStart, sawComplete bool
	for _, ev := range collector.events {
		if ev.Tool != tools.ToolCountUnassignedVehicles {
			continue
		}
		switch ev.Type {
		case agent.EventToolStart:
			sawStart = true
		case agent.EventToolComplete:
			sawComplete = true
		}
	}
	if !sawStart || !sawComplete {
		t.Errorf("tool events missing: start=%v complete=%v (events: %v)",
			sawStart, sawComplete, collector.types())
	}
}

func TestExecuteHistoryReplayedAcrossTurns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID := uuid.New()

	env.mock.AddResponse("first question", "First answer.")
	env.mock.AddResponse("second question", "Second answer.")

	if _, err := env.agent.Execute(ctx, Request{SessionID: sessionID, Query: "first question"}); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if _, err := env.agent.Execute(ctx, Request{SessionID: sessionID, Query: "second question"}); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	calls := env.mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("model called %d times, want 2", len(calls))
	}
	// Second call sees system + user1 + model1 + user2.
	if calls[1].Messages <= calls[0].Messages {
		t.Errorf("history not replayed: first call %d messages, second %d",
			calls[0].Messages, calls[1].Messages)
	}
}

func TestExecuteWithImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID := uuid.New()

	env.mock.AddResponse("occupancy chart", "The chart shows trip occupancy peaking at 08:30.")

	resp, err := env.agent.Execute(ctx, Request{
		SessionID: sessionID,
		Query:     "what does this occupancy chart show?",
		ImageData: tinyPNG,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(resp.FinalText, "occupancy") {
		t.Errorf("FinalText = %q", resp.FinalText)
	}

	// The persisted user message keeps both the image and the text part.
	msgs, err := env.sessions.Messages(ctx, sessionID, 10, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	if len(msgs[0].Content) != 2 {
		t.Fatalf("user message has %d parts, want 2", len(msgs[0].Content))
	}
	if msgs[0].Content[0].ContentType != "image/png" {
		t.Errorf("first part content type = %q, want image/png", msgs[0].Content[0].ContentType)
	}
}

func TestExecuteRejectsBadImage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.agent.Execute(context.Background(), Request{
		SessionID: uuid.New(),
		Query:     "look at this",
		ImageData: "definitely-not-base64!!!",
	})
	if !errors.Is(err, agent.ErrNotAnImage) {
		t.Errorf("Execute() error = %v, want ErrNotAnImage", err)
	}
}

func TestScrubInterruptMarkers(t *testing.T) {
	t.Parallel()

	msgs := []*ai.Message{{
		Role: ai.RoleModel,
		Content: []*ai.Part{{
			Kind:        ai.PartToolRequest,
			ToolRequest: &ai.ToolRequest{Name: "remove_vehicle_from_trip"},
			Metadata: map[string]any{
				"interrupt": map[string]any{"consequence": "WARNING"},
			},
		}},
	}}

	scrubbed := scrubInterruptMarkers(msgs)

	meta := scrubbed[0].Content[0].Metadata
	if _, ok := meta["interrupt"]; ok {
		t.Error("interrupt marker survived the scrub")
	}
	if meta["resolvedInterrupt"] != true {
		t.Error("resolvedInterrupt marker missing")
	}
}

func TestGenerateTitle(t *testing.T) {
	env := newTestEnv(t)

	env.mock.AddResponse("generate a concise title", "Vehicle deployment check")

	title := env.agent.GenerateTitle(context.Background(), "which vehicles are deployed right now?")
	if title != "Vehicle deployment check" {
		t.Errorf("GenerateTitle() = %q", title)
	}
}

func TestGenerateTitleTruncatesLongTitles(t *testing.T) {
	env := newTestEnv(t)

	long := strings.Repeat("route planning and deployment ", 10)
	env.mock.AddResponse("generate a concise title", long)

	title := env.agent.GenerateTitle(context.Background(), "long question")
	if len([]rune(title)) > session.TitleMaxLength {
		t.Errorf("title length = %d, want <= %d", len([]rune(title)), session.TitleMaxLength)
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("truncated title %q should end with ellipsis", title)
	}
}

// Deep copy guards against Genkit mutating shared history in place.

func TestDeepCopyMessagesNilInput(t *testing.T) {
	t.Parallel()
	if got := deepCopyMessages(nil); got != nil {
		t.Errorf("deepCopyMessages(nil) = %v, want nil", got)
	}
}

func TestDeepCopyMessagesIndependent(t *testing.T) {
	t.Parallel()

	original := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello world")),
	}
	copied := deepCopyMessages(original)

	original[0].Content[0].Text = "MUTATED"
	original[0].Content = append(original[0].Content, ai.NewTextPart("extra"))

	if copied[0].Content[0].Text != "hello world" {
		t.Errorf("copy affected by text mutation: %q", copied[0].Content[0].Text)
	}
	if len(copied[0].Content) != 1 {
		t.Errorf("copy affected by slice append: len = %d", len(copied[0].Content))
	}
}

func TestDeepCopyPartToolData(t *testing.T) {
	t.Parallel()

	original := &ai.Part{
		Kind: ai.PartToolRequest,
		ToolRequest: &ai.ToolRequest{
			Name:  "get_trip_status",
			Input: map[string]any{"trip_display_name": "Bulk - 00:01"},
		},
		Metadata: map[string]any{"interrupt": true},
	}
	copied := deepCopyPart(original)

	original.ToolRequest.Name = "MUTATED"
	original.Metadata["interrupt"] = "MUTATED"

	if copied.ToolRequest.Name != "get_trip_status" {
		t.Errorf("ToolRequest.Name affected: %q", copied.ToolRequest.Name)
	}
	if copied.Metadata["interrupt"] != true {
		t.Errorf("Metadata affected: %v", copied.Metadata["interrupt"])
	}
}

func TestShallowCopyMapIndependentKeys(t *testing.T) {
	t.Parallel()

	original := map[string]any{"a": "1"}
	copied := shallowCopyMap(original)
	original["b"] = "2"

	if _, ok := copied["b"]; ok {
		t.Error("new key in original appeared in copy")
	}
	if shallowCopyMap(nil) != nil {
		t.Error("shallowCopyMap(nil) should stay nil")
	}
}
