package tools

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Registry manages local tool lookup.
// It provides a unified interface for accessing locally registered tools.
//
// Design: Registry is stateless and thread-safe. It performs fresh lookups
// on each call to All(), ensuring tools are always up-to-date.
type Registry struct {
	g *genkit.Genkit
}

// NewRegistry creates a new tool registry.
//
// Example:
//
//	registry := tools.NewRegistry(g)
//	allLocalTools := registry.All(ctx)
func NewRegistry(g *genkit.Genkit) *Registry {
	return &Registry{g: g}
}

// All returns all locally registered tools as Genkit tool references.
// Uses ToolNames() as the source of truth; tools missing from the Genkit
// registry are skipped rather than passed along as nil.
func (r *Registry) All(ctx context.Context) []ai.ToolRef {
	toolNames := ToolNames()
	toolRefs := make([]ai.ToolRef, 0, len(toolNames))

	for _, name := range toolNames {
		if tool := genkit.LookupTool(r.g, name); tool != nil {
			toolRefs = append(toolRefs, tool)
		}
	}

	return toolRefs
}

// Count returns the number of locally registered tools.
// Useful for monitoring and debugging.
func (r *Registry) Count(ctx context.Context) int {
	return len(r.All(ctx))
}
