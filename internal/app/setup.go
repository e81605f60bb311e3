package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/jmoiron/sqlx"

	"github.com/movitransit/movi/db"
	"github.com/movitransit/movi/internal/chat"
	"github.com/movitransit/movi/internal/config"
	"github.com/movitransit/movi/internal/database"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/observability"
	"github.com/movitransit/movi/internal/security"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/speech"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// Setup creates and initializes the application.
// On failure, everything already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	a := &App{Config: cfg}
	a.Logger = log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				a.Logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing hooks into Genkit's TracerProvider, so it must be wired
	// before genkit.Init.
	otelShutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: observability.DefaultServiceName,
		Logger:      a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = otelShutdown

	conn, err := provideDatabase(cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.DB = conn

	store, err := transit.NewStore(transit.StoreConfig{DB: conn, Logger: a.Logger})
	if err != nil {
		return nil, fmt.Errorf("creating transit store: %w", err)
	}
	a.Store = store

	// Seed the demo dataset. A database that already has data is left
	// untouched.
	if err := store.Seed(ctx); err != nil {
		return nil, fmt.Errorf("seeding database: %w", err)
	}

	sessions, err := session.New(conn, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	a.Sessions = sessions

	g, err := provideGenkit(ctx, cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	if err := provideTools(a); err != nil {
		return nil, err
	}

	if err := provideAgent(ctx, a); err != nil {
		return nil, err
	}

	a.Speech = speech.New(speech.Config{
		STTModel: cfg.STTModel,
		TTSModel: cfg.TTSModel,
		Voice:    cfg.TTSVoice,
		Logger:   a.Logger,
	})

	return a, nil
}

// provideDatabase opens the SQLite database and brings the schema up to
// date.
func provideDatabase(cfg *config.Config, logger log.Logger) (*sqlx.DB, error) {
	conn, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(conn.DB); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("database ready", "path", cfg.DatabasePath)
	return conn, nil
}

// provideGenkit initializes Genkit with the OpenAI plugin. The plugin
// reads OPENAI_API_KEY from the environment; config validation has
// already checked that it is present.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with openai provider")
	}

	logger.Info("initialized Genkit", "provider", cfg.Provider, "model", cfg.ModelName)
	return g, nil
}

// provideTools creates the three toolsets and registers them with Genkit.
func provideTools(a *App) error {
	fleet, err := tools.NewFleetToolset(a.Store, a.Logger)
	if err != nil {
		return fmt.Errorf("creating fleet toolset: %w", err)
	}
	a.Fleet = fleet

	network, err := tools.NewNetworkToolset(a.Store, a.Logger)
	if err != nil {
		return fmt.Errorf("creating network toolset: %w", err)
	}
	a.Network = network

	query, err := tools.NewQueryToolset(a.Store, security.NewSQL(), a.Logger)
	if err != nil {
		return fmt.Errorf("creating query toolset: %w", err)
	}
	a.Query = query

	if err := tools.Register(a.Genkit, fleet, network, query); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	a.Logger.Debug("tools registered", "count", len(tools.ToolNames()))
	return nil
}

// provideAgent builds the conversational agent and registers the chat
// flow.
func provideAgent(ctx context.Context, a *App) error {
	cfg := a.Config

	agent, err := chat.New(chat.Config{
		Genkit:          a.Genkit,
		Sessions:        a.Sessions,
		Transit:         a.Store,
		Fleet:           a.Fleet,
		Logger:          a.Logger,
		Tools:           tools.NewRegistry(a.Genkit).All(ctx),
		ModelName:       cfg.FullModelName(),
		MaxTurns:        cfg.MaxTurns,
		HistoryLimit:    config.NormalizeMaxHistoryMessages(cfg.MaxHistoryMessages),
		PromptValidator: security.NewPromptValidator(),
	})
	if err != nil {
		return fmt.Errorf("creating chat agent: %w", err)
	}
	a.Agent = agent
	a.Flow = chat.NewFlow(a.Genkit, agent)

	return nil
}
