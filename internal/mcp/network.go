package mcp

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/movitransit/movi/internal/tools"
)

// registerNetworkTools registers the stop, path, and route tools.
// Tools: list_stops_for_path, list_routes_for_path, list_active_routes,
// create_stop, create_path, create_route
func (s *Server) registerNetworkTools() error {
	stopsSchema, err := jsonschema.For[tools.StopsForPathInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolListStopsForPath, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolListStopsForPath,
		Description: "List all stops of a path in boarding order.",
		InputSchema: stopsSchema,
	}, s.ListStopsForPath)

	routesSchema, err := jsonschema.For[tools.RoutesForPathInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolListRoutesForPath, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolListRoutesForPath,
		Description: "List all routes that run on a given path.",
		InputSchema: routesSchema,
	}, s.ListRoutesForPath)

	activeSchema, err := jsonschema.For[tools.ActiveRoutesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolListActiveRoutes, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolListActiveRoutes,
		Description: "List all routes whose status is active.",
		InputSchema: activeSchema,
	}, s.ListActiveRoutes)

	createStopSchema, err := jsonschema.For[tools.CreateStopInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolCreateStop, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolCreateStop,
		Description: "Create a new stop if it does not exist yet. Coordinates are optional.",
		InputSchema: createStopSchema,
	}, s.CreateStop)

	createPathSchema, err := jsonschema.For[tools.CreatePathInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolCreatePath, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolCreatePath,
		Description: "Create a new path from an ordered list of stop names. Stops that do not exist are created automatically.",
		InputSchema: createPathSchema,
	}, s.CreatePath)

	createRouteSchema, err := jsonschema.For[tools.CreateRouteInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolCreateRoute, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolCreateRoute,
		Description: "Create a new route on an existing path with a shift time and direction. The route starts active.",
		InputSchema: createRouteSchema,
	}, s.CreateRoute)

	return nil
}

// ListStopsForPath handles the list_stops_for_path MCP tool call.
func (s *Server) ListStopsForPath(ctx context.Context, req *mcp.CallToolRequest, input tools.StopsForPathInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.network.ListStopsForPath(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("list_stops_for_path failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// ListRoutesForPath handles the list_routes_for_path MCP tool call.
func (s *Server) ListRoutesForPath(ctx context.Context, req *mcp.CallToolRequest, input tools.RoutesForPathInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.network.ListRoutesForPath(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("list_routes_for_path failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// ListActiveRoutes handles the list_active_routes MCP tool call.
func (s *Server) ListActiveRoutes(ctx context.Context, req *mcp.CallToolRequest, input tools.ActiveRoutesInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.network.ListActiveRoutes(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("list_active_routes failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// CreateStop handles the create_stop MCP tool call.
func (s *Server) CreateStop(ctx context.Context, req *mcp.CallToolRequest, input tools.CreateStopInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.network.CreateStop(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("create_stop failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// CreatePath handles the create_path MCP tool call.
func (s *Server) CreatePath(ctx context.Context, req *mcp.CallToolRequest, input tools.CreatePathInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.network.CreatePath(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("create_path failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// CreateRoute handles the create_route MCP tool call.
func (s *Server) CreateRoute(ctx context.Context, req *mcp.CallToolRequest, input tools.CreateRouteInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.network.CreateRoute(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("create_route failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}
