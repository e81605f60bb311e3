package tools

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
)

func TestToolNames(t *testing.T) {
	names := ToolNames()

	expectedTools := []string{
		"count_unassigned_vehicles",
		"list_unassigned_drivers",
		"get_trip_status",
		"assign_vehicle_and_driver",
		"remove_vehicle_from_trip",
		"list_stops_for_path",
		"list_routes_for_path",
		"list_active_routes",
		"create_stop",
		"create_path",
		"create_route",
		"run_sql_query",
	}

	if len(names) != len(expectedTools) {
		t.Errorf("expected %d tools, got %d", len(expectedTools), len(names))
	}

	toolMap := make(map[string]bool)
	for _, name := range names {
		if toolMap[name] {
			t.Errorf("duplicate tool name %q", name)
		}
		toolMap[name] = true
	}

	for _, expected := range expectedTools {
		if !toolMap[expected] {
			t.Errorf("expected tool %q not found in tool names", expected)
		}
	}
}

func newTestToolsets(t *testing.T) (*FleetToolset, *NetworkToolset, *QueryToolset) {
	t.Helper()

	store := newTestStore(t)
	fleet, err := NewFleetToolset(store, testLogger())
	if err != nil {
		t.Fatalf("new fleet toolset: %v", err)
	}
	network, err := NewNetworkToolset(store, testLogger())
	if err != nil {
		t.Fatalf("new network toolset: %v", err)
	}
	query, err := NewQueryToolset(store, newTestSQLValidator(), testLogger())
	if err != nil {
		t.Fatalf("new query toolset: %v", err)
	}
	return fleet, network, query
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	g := genkit.Init(ctx)

	fleet, network, query := newTestToolsets(t)

	if err := Register(g, fleet, network, query); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Every declared tool must be resolvable afterwards.
	for _, name := range ToolNames() {
		if tool := genkit.LookupTool(g, name); tool == nil {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestRegisterNilArguments(t *testing.T) {
	ctx := context.Background()
	g := genkit.Init(ctx)

	fleet, network, query := newTestToolsets(t)

	tests := []struct {
		name string
		run  func() error
	}{
		{"nil genkit", func() error { return Register(nil, fleet, network, query) }},
		{"no toolsets", func() error { return Register(g) }},
		{"nil fleet", func() error { return Register(g, nil, network, query) }},
		{"nil network", func() error { return Register(g, fleet, nil, query) }},
		{"nil query", func() error { return Register(g, fleet, network, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
