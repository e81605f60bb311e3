package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/movitransit/movi/internal/agent"
)

// Input defines the request payload for the chat flow.
type Input struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"` // Required field: session ID
	Page      string `json:"page,omitempty"`
	ImageData string `json:"imageData,omitempty"`
}

// Output defines the response payload from the chat flow.
//
// Interrupted turns carry the pending confirmation instead of a final
// answer; the client resolves them through the confirm endpoint.
type Output struct {
	Response     string                     `json:"response"`
	SessionID    string                     `json:"sessionId"`
	Interrupted  bool                       `json:"interrupted,omitempty"`
	Confirmation *agent.PendingConfirmation `json:"confirmation,omitempty"`
}

// FlowName is the registered name of the chat flow in Genkit.
const FlowName = "movi/chat"

// Flow is the type alias for the Movi agent's Genkit streaming flow.
// Exported for use with genkit.Handler(). The stream type is the same
// agent.Event the web layer forwards as server-sent events.
type Flow = core.Flow[Input, Output, agent.Event]

// Package-level singleton for Flow to prevent panic on re-registration.
// sync.Once ensures genkit.DefineStreamingFlow is called only once.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the chat flow singleton, initializing it on first call.
// Subsequent calls return the existing Flow (parameters are ignored).
// This is safe because genkit.DefineStreamingFlow panics on re-registration.
func NewFlow(g *genkit.Genkit, a *Agent) *Flow {
	flowOnce.Do(func() {
		flow = a.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting resets the Flow singleton for testing.
// This allows tests to initialize with different configurations.
// WARNING: Only use in tests. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow defines the Genkit streaming flow for the Movi agent.
// Supports both streaming (via callback) and non-streaming modes.
//
// IMPORTANT: Use NewFlow() instead of calling DefineFlow() directly.
// DefineFlow registers a global Flow; calling it twice causes panic.
//
// The flow is a lightweight wrapper responsible for:
// 1. Observability (Genkit DevUI tracing)
// 2. Type safety (Input/Output schema)
// 3. HTTP endpoint exposure via genkit.Handler()
// 4. Streaming support for real-time output
//
// Agent.ExecuteStream() contains the core logic. Errors use the agent
// package's sentinel errors so HTTP handlers can map them with errors.Is().
func (a *Agent) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, agent.Event) error) (Output, error) {
			sessionID, err := uuid.Parse(input.SessionID)
			if err != nil {
				return Output{SessionID: input.SessionID}, fmt.Errorf("%w: %w", agent.ErrInvalidSession, err)
			}

			// The flow's stream type and StreamCallback share a shape, so
			// the genkit callback converts directly. Nil stays nil for the
			// non-streaming Run() path.
			var callback StreamCallback
			if streamCb != nil {
				callback = StreamCallback(streamCb)
			}

			resp, err := a.ExecuteStream(ctx, Request{
				SessionID: sessionID,
				Query:     input.Query,
				Page:      input.Page,
				ImageData: input.ImageData,
			}, callback)
			if err != nil {
				// Genkit marks this span as failed, keeping traces honest.
				return Output{SessionID: input.SessionID}, fmt.Errorf("%w: %w", agent.ErrExecutionFailed, err)
			}

			out := Output{
				Response:  resp.FinalText,
				SessionID: input.SessionID,
			}
			if resp.Interrupted() {
				out.Interrupted = true
				out.Confirmation = a.Pending(sessionID)
			}
			return out, nil
		},
	)
}
