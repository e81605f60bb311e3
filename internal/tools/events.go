package tools

import (
	"github.com/firebase/genkit/go/ai"
)

// WithEvents wraps a typed tool handler to emit lifecycle events.
// The wrapped function plugs directly into genkit.DefineTool().
//
// The wrapper:
//  1. Retrieves emitter from context (may be nil for non-streaming calls)
//  2. Emits OnToolStart before execution
//  3. Calls the original handler function
//  4. Emits OnToolComplete or OnToolError after execution
//
// If no emitter is in context, the wrapper simply passes through to the
// original function, so REST and MCP callers pay nothing for it.
func WithEvents[In, Out any](name string, fn func(*ai.ToolContext, In) (Out, error)) func(*ai.ToolContext, In) (Out, error) {
	return func(ctx *ai.ToolContext, input In) (Out, error) {
		emitter := EmitterFromContext(ctx.Context)

		if emitter != nil {
			emitter.OnToolStart(name)
		}

		result, err := fn(ctx, input)

		if emitter != nil {
			if err != nil {
				emitter.OnToolError(name)
			} else {
				emitter.OnToolComplete(name)
			}
		}

		return result, err
	}
}
