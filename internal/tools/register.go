package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/genkit"
)

// toolNames contains all registered tool names.
// This is the single source of truth for tool names to avoid duplication.
var toolNames = []string{
	ToolCountUnassignedVehicles,
	ToolListUnassignedDrivers,
	ToolGetTripStatus,
	ToolAssignVehicleAndDriver,
	ToolRemoveVehicleFromTrip,
	ToolListStopsForPath,
	ToolListRoutesForPath,
	ToolListActiveRoutes,
	ToolCreateStop,
	ToolCreatePath,
	ToolCreateRoute,
	ToolRunSQLQuery,
}

// ToolNames returns all registered tool names.
// This allows other packages to get the tool list without duplication.
func ToolNames() []string {
	return toolNames
}

// Register registers every given toolset's tools with Genkit.
//
// Each toolset defines its own tools (see Toolset.Register); the handlers
// are wrapped with WithEvents so tool starts, completions, and failures
// reach the SSE stream of the chat panel.
func Register(g *genkit.Genkit, toolsets ...Toolset) error {
	if g == nil {
		return fmt.Errorf("genkit instance is required (cannot be nil)")
	}
	if len(toolsets) == 0 {
		return fmt.Errorf("at least one toolset is required")
	}

	// Validate every toolset before registering any, so the error path
	// leaves no toolsets partially registered.
	for i, ts := range toolsets {
		if ts == nil {
			return fmt.Errorf("toolset %d is nil", i)
		}
	}
	for _, ts := range toolsets {
		ts.Register(g)
	}

	return nil
}
