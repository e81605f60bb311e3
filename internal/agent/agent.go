package agent

import (
	"github.com/firebase/genkit/go/ai"
)

// Response represents the complete result of one model generation round.
type Response struct {
	FinalText    string            // Model's final text output
	History      []*ai.Message     // Conversation history including tool calls
	ToolRequests []*ai.ToolRequest // Tool requests made during execution

	// Interrupt is non-nil when generation paused on a dangerous tool call
	// and the operator has to decide before the turn can finish.
	Interrupt *InterruptEvent
}

// Interrupted reports whether this response is waiting on a confirmation.
func (r *Response) Interrupted() bool {
	return r != nil && r.Interrupt != nil
}
