// Package app wires the Movi services together for the commands.
//
// Setup builds everything in dependency order and returns an App holding
// the shared pieces. Commands assemble their own outer surface from the
// fields: cmd/serve builds the HTTP stack from the store, the chat flow,
// and the speech service; cmd/mcp builds the MCP server from the
// toolsets. Close releases what Setup opened.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jmoiron/sqlx"

	"github.com/movitransit/movi/internal/chat"
	"github.com/movitransit/movi/internal/config"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/speech"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit   *genkit.Genkit
	DB       *sqlx.DB
	Store    *transit.Store
	Sessions *session.Store
	Speech   *speech.Service

	// Toolsets, shared by the chat agent, the REST API, and the MCP
	// server.
	Fleet   *tools.FleetToolset
	Network *tools.NetworkToolset
	Query   *tools.QueryToolset

	// Conversational layer
	Agent *chat.Agent
	Flow  *chat.Flow

	otelShutdown func(context.Context) error
}

// Close releases the resources Setup opened. It is safe to call on a
// partially built App and safe to call more than once.
func (a *App) Close() error {
	logger := a.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		a.DB = nil
		logger.Debug("database closed")
	}

	return nil
}
