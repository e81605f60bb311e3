package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/movitransit/movi/internal/chat"
	"github.com/movitransit/movi/internal/config"
)

// testConfig returns a config shaped like the defaults config.Load
// produces, pointing at a throwaway database.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Provider:           config.ProviderOpenAI,
		ModelName:          "gpt-4o-mini",
		Temperature:        0.1,
		MaxTurns:           5,
		STTModel:           "whisper-1",
		TTSModel:           "gpt-4o-mini-tts",
		TTSVoice:           "alloy",
		MaxHistoryMessages: 100,
		DatabasePath:       filepath.Join(t.TempDir(), "movi.db"),
		ServerHost:         "127.0.0.1",
		ServerPort:         8080,
		LogLevel:           "error",
	}
}

// Setup tests share the chat flow singleton through ResetFlowForTesting,
// so none of them run in parallel.
func TestSetup(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	chat.ResetFlowForTesting()
	t.Cleanup(chat.ResetFlowForTesting)

	ctx := context.Background()
	a, err := Setup(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	fields := []struct {
		name string
		ok   bool
	}{
		{"Logger", a.Logger != nil},
		{"Genkit", a.Genkit != nil},
		{"DB", a.DB != nil},
		{"Store", a.Store != nil},
		{"Sessions", a.Sessions != nil},
		{"Speech", a.Speech != nil},
		{"Fleet", a.Fleet != nil},
		{"Network", a.Network != nil},
		{"Query", a.Query != nil},
		{"Agent", a.Agent != nil},
		{"Flow", a.Flow != nil},
	}
	for _, f := range fields {
		if !f.ok {
			t.Errorf("Setup() left App.%s nil", f.name)
		}
	}

	// The seed ran: the dashboard lists the three demo trips.
	rows, err := a.Store.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("Dashboard() returned %d trips, want 3", len(rows))
	}

	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSetup_NilConfig(t *testing.T) {
	if _, err := Setup(context.Background(), nil); err == nil {
		t.Fatal("Setup(nil) succeeded, want error")
	}
}

func TestSetup_DatabaseError(t *testing.T) {
	// A regular file where the database directory should go makes the
	// open fail before any other service is built.
	blocker := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("writing blocker file: %v", err)
	}

	cfg := testConfig(t)
	cfg.DatabasePath = filepath.Join(blocker, "movi.db")

	if _, err := Setup(context.Background(), cfg); err == nil {
		t.Fatal("Setup() with unusable database path succeeded, want error")
	}
}

func TestClose(t *testing.T) {
	tests := []struct {
		name string
		app  *App
	}{
		{name: "zero value", app: &App{}},
		{name: "config only", app: &App{Config: &config.Config{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.app.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}
