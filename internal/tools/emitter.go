package tools

import (
	"context"
)

// emitterKey uses empty struct for zero-allocation context key.
type emitterKey struct{}

// ToolEventEmitter receives tool lifecycle events.
// The interface is minimal: only the tool name, no UI concerns.
// UI presentation (labels, icons) lives in the web handler layer.
//
// Usage:
//  1. Handler creates emitter bound to the SSE writer
//  2. Handler stores emitter in context via ContextWithEmitter()
//  3. Wrapped tool retrieves emitter via EmitterFromContext()
//  4. Tool calls OnToolStart/Complete/Error during execution
type ToolEventEmitter interface {
	// OnToolStart signals that a tool has started execution.
	// name: tool name (e.g., "get_trip_status")
	OnToolStart(name string)

	// OnToolComplete signals that a tool completed successfully.
	OnToolComplete(name string)

	// OnToolError signals that a tool execution failed.
	OnToolError(name string)
}

// EmitterFromContext retrieves ToolEventEmitter from context.
// Returns nil if not set, allowing graceful degradation (no events emitted).
// Non-streaming code paths (REST, MCP) won't have an emitter set.
func EmitterFromContext(ctx context.Context) ToolEventEmitter {
	emitter, _ := ctx.Value(emitterKey{}).(ToolEventEmitter)
	return emitter
}

// ContextWithEmitter stores ToolEventEmitter in context.
// The chat handler binds one emitter per request.
func ContextWithEmitter(ctx context.Context, emitter ToolEventEmitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}
