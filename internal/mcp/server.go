package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/tools"
)

// Config holds everything the MCP server needs. All fields are required;
// the toolsets are the same instances the chat agent registers with Genkit.
type Config struct {
	Name    string
	Version string
	Logger  log.Logger

	Fleet   *tools.FleetToolset
	Network *tools.NetworkToolset
	Query   *tools.QueryToolset
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if c.Version == "" {
		return fmt.Errorf("server version is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Fleet == nil {
		return fmt.Errorf("fleet toolset is required")
	}
	if c.Network == nil {
		return fmt.Errorf("network toolset is required")
	}
	if c.Query == nil {
		return fmt.Errorf("query toolset is required")
	}
	return nil
}

// Server wraps the MCP SDK server around Movi's toolsets.
type Server struct {
	mcpServer *mcp.Server
	fleet     *tools.FleetToolset
	network   *tools.NetworkToolset
	query     *tools.QueryToolset
	logger    log.Logger
	name      string
	version   string
}

// NewServer creates an MCP server with all Movi tools registered.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		fleet:   cfg.Fleet,
		network: cfg.Network,
		query:   cfg.Query,
		logger:  cfg.Logger,
		name:    cfg.Name,
		version: cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	return s, nil
}

// Run serves MCP protocol requests on the given transport until the
// context is canceled or the client disconnects. Blocking.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("MCP server running",
		"name", s.name,
		"version", s.version,
	)
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	if err := s.registerFleetTools(); err != nil {
		return fmt.Errorf("fleet tools: %w", err)
	}
	if err := s.registerNetworkTools(); err != nil {
		return fmt.Errorf("network tools: %w", err)
	}
	if err := s.registerQueryTools(); err != nil {
		return fmt.Errorf("query tools: %w", err)
	}
	return nil
}
