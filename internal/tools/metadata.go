package tools

// metadata.go defines tool safety metadata for the operator console.
//
// This module provides a centralized registry of tool danger levels, enabling:
// - Clear categorization of tool safety characteristics
// - Runtime validation of dangerous operations
// - Enhanced system prompt guidance for LLM behavior

// DangerLevel indicates the risk level of a tool operation.
type DangerLevel int

const (
	// DangerLevelSafe represents read-only operations with no state modification.
	// Examples: get_trip_status, list_active_routes, count_unassigned_vehicles
	DangerLevelSafe DangerLevel = iota

	// DangerLevelWarning represents operations that modify state but are reversible.
	// Examples: create_stop, assign_vehicle_and_driver (can be reassigned)
	DangerLevelWarning

	// DangerLevelDangerous represents operations that can break live service data.
	// Examples: remove_vehicle_from_trip on a booked trip, write-mode SQL
	// These operations require operator confirmation before execution
	DangerLevelDangerous

	// DangerLevelCritical represents schema-level destructive operations.
	// Nothing registered today reaches this level; the SQL validator blocks
	// DROP and ALTER outright instead
	DangerLevelCritical
)

// String returns the human-readable name of the danger level.
func (d DangerLevel) String() string {
	switch d {
	case DangerLevelSafe:
		return "Safe"
	case DangerLevelWarning:
		return "Warning"
	case DangerLevelDangerous:
		return "Dangerous"
	case DangerLevelCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// ToolMetadata defines business properties for tools.
type ToolMetadata struct {
	// NameField is the unique identifier of the tool.
	NameField string

	// RequiresConfirmation indicates if the tool needs operator approval
	// before execution. True for all DangerLevelDangerous tools.
	RequiresConfirmation bool

	// DangerLevel classifies the safety level of the tool.
	DangerLevel DangerLevel

	// IsDangerousFunc optionally decides whether specific parameters make
	// this call dangerous. Example: run_sql_query in write mode is dangerous,
	// in read mode it is not. If nil, danger level is static.
	IsDangerousFunc func(params map[string]any) bool

	// Category organizes tools by domain (Fleet, Network, Query).
	Category string

	// DescriptionField provides a brief explanation of what the tool does.
	DescriptionField string
}

// Name returns the tool's name.
func (t *ToolMetadata) Name() string {
	return t.NameField
}

// Description returns the tool's description.
func (t *ToolMetadata) Description() string {
	return t.DescriptionField
}

// IsLongRunning indicates if the tool is long-running.
// Currently false for all registered tools.
func (t *ToolMetadata) IsLongRunning() bool {
	return false
}

// toolMetadata is the central registry of all tool metadata.
// This is the single source of truth for tool safety classifications.
var toolMetadata = map[string]ToolMetadata{
	// Fleet operations
	ToolCountUnassignedVehicles: {
		NameField:            ToolCountUnassignedVehicles,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelSafe,
		IsDangerousFunc:      nil,
		Category:             "Fleet",
		DescriptionField:     "Count vehicles with no deployment (read-only)",
	},
	ToolListUnassignedDrivers: {
		NameField:            ToolListUnassignedDrivers,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelSafe,
		IsDangerousFunc:      nil,
		Category:             "Fleet",
		DescriptionField:     "List drivers with no deployment (read-only)",
	},
	ToolGetTripStatus: {
		NameField:            ToolGetTripStatus,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelSafe,
		IsDangerousFunc:      nil,
		Category:             "Fleet",
		DescriptionField:     "Get trip status with deployment details (read-only)",
	},
	ToolAssignVehicleAndDriver: {
		NameField:            ToolAssignVehicleAndDriver,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelWarning,
		IsDangerousFunc:      nil,
		Category:             "Fleet",
		DescriptionField:     "Create or update a deployment (modifies state, reversible)",
	},
	ToolRemoveVehicleFromTrip: {
		NameField:            ToolRemoveVehicleFromTrip,
		RequiresConfirmation: true,
		DangerLevel:          DangerLevelDangerous,
		IsDangerousFunc:      nil, // Always dangerous: booked trips lose their bookings
		Category:             "Fleet",
		DescriptionField:     "Remove the vehicle and driver from a trip (cancels bookings on booked trips)",
	},

	// Network operations
	ToolListStopsForPath: {
		NameField:            ToolListStopsForPath,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelSafe,
		IsDangerousFunc:      nil,
		Category:             "Network",
		DescriptionField:     "List stops of a path in order (read-only)",
	},
	ToolListRoutesForPath: {
		NameField:            ToolListRoutesForPath,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelSafe,
		IsDangerousFunc:      nil,
		Category:             "Network",
		DescriptionField:     "List routes configured on a path (read-only)",
	},
	ToolListActiveRoutes: {
		NameField:            ToolListActiveRoutes,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelSafe,
		IsDangerousFunc:      nil,
		Category:             "Network",
		DescriptionField:     "List routes whose status is active (read-only)",
	},
	ToolCreateStop: {
		NameField:            ToolCreateStop,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelWarning,
		IsDangerousFunc:      nil,
		Category:             "Network",
		DescriptionField:     "Create a new stop (modifies state, additive)",
	},
	ToolCreatePath: {
		NameField:            ToolCreatePath,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelWarning,
		IsDangerousFunc:      nil,
		Category:             "Network",
		DescriptionField:     "Create a new path with ordered stops (modifies state, additive)",
	},
	ToolCreateRoute: {
		NameField:            ToolCreateRoute,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelWarning,
		IsDangerousFunc:      nil,
		Category:             "Network",
		DescriptionField:     "Create a new active route on a path (modifies state, additive)",
	},

	// Query operations
	ToolRunSQLQuery: {
		NameField:            ToolRunSQLQuery,
		RequiresConfirmation: false,
		DangerLevel:          DangerLevelWarning,
		IsDangerousFunc: func(params map[string]any) bool {
			// Write-mode SQL can touch any table; read mode cannot change state.
			if mode, ok := params["mode"].(string); ok {
				return mode == "write"
			}
			return false
		},
		Category:         "Query",
		DescriptionField: "Run validated ad-hoc SQL (dangerous in write mode)",
	},
}

// GetToolMetadata retrieves metadata for a specific tool.
// Returns the metadata and a boolean indicating if the tool was found.
func GetToolMetadata(toolName string) (ToolMetadata, bool) {
	meta, ok := toolMetadata[toolName]
	return meta, ok
}

// GetAllToolMetadata returns a copy of all tool metadata.
// Useful for documentation generation and validation.
func GetAllToolMetadata() map[string]ToolMetadata {
	// Return a copy to prevent external mutation
	result := make(map[string]ToolMetadata, len(toolMetadata))
	for k, v := range toolMetadata {
		result[k] = v
	}
	return result
}

// IsDangerous returns true if the tool is classified as DangerLevelDangerous
// or DangerLevelCritical.
func IsDangerous(toolName string) bool {
	if meta, ok := toolMetadata[toolName]; ok {
		return meta.DangerLevel == DangerLevelDangerous || meta.DangerLevel == DangerLevelCritical
	}
	// Unknown tools are treated as safe by default
	return false
}

// RequiresConfirmation returns true if the tool requires operator confirmation
// before execution. Considers both the static flag and IsDangerousFunc.
func RequiresConfirmation(toolName string, params map[string]any) bool {
	meta, ok := toolMetadata[toolName]
	if !ok {
		return false
	}

	if meta.RequiresConfirmation {
		return true
	}

	if meta.IsDangerousFunc != nil && meta.IsDangerousFunc(params) {
		return true
	}

	return false
}

// GetDangerLevel returns the danger level of a tool.
// Returns DangerLevelSafe for unknown tools.
func GetDangerLevel(toolName string) DangerLevel {
	if meta, ok := toolMetadata[toolName]; ok {
		return meta.DangerLevel
	}
	return DangerLevelSafe
}

// ListToolsByDangerLevel returns all tools matching the specified danger level.
func ListToolsByDangerLevel(level DangerLevel) []ToolMetadata {
	var result []ToolMetadata

	for _, meta := range toolMetadata {
		if meta.DangerLevel == level {
			result = append(result, meta)
		}
	}

	return result
}
