package mcp

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/movitransit/movi/internal/tools"
)

// registerFleetTools registers the vehicle and driver deployment tools.
// Tools: count_unassigned_vehicles, list_unassigned_drivers,
// get_trip_status, assign_vehicle_and_driver, remove_vehicle_from_trip
func (s *Server) registerFleetTools() error {
	countSchema, err := jsonschema.For[tools.CountUnassignedVehiclesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolCountUnassignedVehicles, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolCountUnassignedVehicles,
		Description: "Count how many vehicles are not assigned to any trip.",
		InputSchema: countSchema,
	}, s.CountUnassignedVehicles)

	driversSchema, err := jsonschema.For[tools.ListUnassignedDriversInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolListUnassignedDrivers, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolListUnassignedDrivers,
		Description: "List all drivers that are not assigned to any deployment.",
		InputSchema: driversSchema,
	}, s.ListUnassignedDrivers)

	statusSchema, err := jsonschema.For[tools.TripStatusInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolGetTripStatus, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolGetTripStatus,
		Description: "Get the full status of a trip: route, booking percentage, live status, and the assigned vehicle and driver.",
		InputSchema: statusSchema,
	}, s.GetTripStatus)

	assignSchema, err := jsonschema.For[tools.AssignVehicleInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolAssignVehicleAndDriver, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolAssignVehicleAndDriver,
		Description: "Assign or update the vehicle and driver deployed on a trip.",
		InputSchema: assignSchema,
	}, s.AssignVehicleAndDriver)

	removeSchema, err := jsonschema.For[tools.RemoveVehicleInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolRemoveVehicleFromTrip, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        tools.ToolRemoveVehicleFromTrip,
		Description: "Remove the vehicle and driver from a trip. Booked trips require an explicit user confirmation before removal: the first call returns a warning, call again with force=true to proceed.",
		InputSchema: removeSchema,
	}, s.RemoveVehicleFromTrip)

	return nil
}

// CountUnassignedVehicles handles the count_unassigned_vehicles MCP tool call.
func (s *Server) CountUnassignedVehicles(ctx context.Context, req *mcp.CallToolRequest, input tools.CountUnassignedVehiclesInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.fleet.CountUnassignedVehicles(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("count_unassigned_vehicles failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// ListUnassignedDrivers handles the list_unassigned_drivers MCP tool call.
func (s *Server) ListUnassignedDrivers(ctx context.Context, req *mcp.CallToolRequest, input tools.ListUnassignedDriversInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.fleet.ListUnassignedDrivers(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("list_unassigned_drivers failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// GetTripStatus handles the get_trip_status MCP tool call.
func (s *Server) GetTripStatus(ctx context.Context, req *mcp.CallToolRequest, input tools.TripStatusInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.fleet.GetTripStatus(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("get_trip_status failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// AssignVehicleAndDriver handles the assign_vehicle_and_driver MCP tool call.
func (s *Server) AssignVehicleAndDriver(ctx context.Context, req *mcp.CallToolRequest, input tools.AssignVehicleInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.fleet.AssignVehicleAndDriver(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("assign_vehicle_and_driver failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}

// RemoveVehicleFromTrip handles the remove_vehicle_from_trip MCP tool call.
//
// It calls the plain removal entry point rather than the Genkit tool, so a
// booked trip without force comes back as a CONFIRMATION_REQUIRED error
// result instead of an interrupt. The warning text and deployment details
// give the client everything it needs to re-call with force=true.
func (s *Server) RemoveVehicleFromTrip(ctx context.Context, req *mcp.CallToolRequest, input tools.RemoveVehicleInput) (*mcp.CallToolResult, any, error) {
	result, err := s.fleet.RemoveVehicle(ctx, input.TripDisplayName, input.Force)
	if err != nil {
		return nil, nil, fmt.Errorf("remove_vehicle_from_trip failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}
