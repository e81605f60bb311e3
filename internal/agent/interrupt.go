package agent

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// InterruptEvent represents a tool execution Genkit paused because the tool
// asked for operator confirmation. The chat layer holds the event while the
// operator decides, then resumes generation with ToolResponse().
type InterruptEvent struct {
	ToolName    string
	Parameters  map[string]any
	Consequence string
	DangerLevel string
	Details     map[string]any

	// Pending tool request part (for the internal resume flow).
	raw *ai.Part
}

// ConfirmationResponse is the operator's decision on an interrupt.
type ConfirmationResponse struct {
	Approved bool
	Reason   string // Reason for rejection, shown to the model
}

// InterruptFromMessage scans a model message for the interrupted tool request
// and builds an InterruptEvent from it. Returns nil when the message holds no
// tool request.
//
// Genkit marks the pending request part with an "interrupt" metadata entry
// carrying whatever the tool passed to ctx.Interrupt. A part with that marker
// wins; otherwise the last tool request in the message is the one generation
// stopped on.
func InterruptFromMessage(msg *ai.Message) *InterruptEvent {
	if msg == nil {
		return nil
	}

	var fallback *ai.Part
	for _, part := range msg.Content {
		if part.ToolRequest == nil {
			continue
		}
		fallback = part
		if meta, ok := interruptMetadata(part); ok {
			return eventFromPart(part, meta)
		}
	}

	if fallback == nil {
		return nil
	}
	return eventFromPart(fallback, nil)
}

// interruptMetadata extracts the metadata the tool attached via ctx.Interrupt.
func interruptMetadata(part *ai.Part) (map[string]any, bool) {
	if part.Metadata == nil {
		return nil, false
	}
	raw, ok := part.Metadata["interrupt"]
	if !ok {
		return nil, false
	}
	// A bare true means the tool interrupted without metadata.
	meta, _ := raw.(map[string]any)
	return meta, true
}

func eventFromPart(part *ai.Part, meta map[string]any) *InterruptEvent {
	ev := &InterruptEvent{
		ToolName: part.ToolRequest.Name,
		raw:      part,
	}
	if params, ok := part.ToolRequest.Input.(map[string]any); ok {
		ev.Parameters = params
	}
	if c, ok := meta["consequence"].(string); ok {
		ev.Consequence = c
	}
	if d, ok := meta["dangerLevel"].(string); ok {
		ev.DangerLevel = d
	}
	if details, ok := meta["details"].(map[string]any); ok {
		ev.Details = details
	}
	return ev
}

// Raw returns the pending tool request part generation stopped on.
func (e *InterruptEvent) Raw() *ai.Part {
	return e.raw
}

// StringParam returns a string parameter of the interrupted call.
func (e *InterruptEvent) StringParam(key string) string {
	if e == nil || e.Parameters == nil {
		return ""
	}
	v, _ := e.Parameters[key].(string)
	return v
}

// ToolResponse builds the tool response part that resumes generation after
// the operator decided.
//
// This mirrors Genkit's tool.Respond():
//   - Name and Ref are copied from the pending request for correlation
//   - interruptResponse metadata signals the request has been answered
func (e *InterruptEvent) ToolResponse(output any) *ai.Part {
	if e == nil || e.raw == nil || e.raw.ToolRequest == nil {
		return nil
	}

	resp := ai.NewToolResponsePart(&ai.ToolResponse{
		Name:   e.raw.ToolRequest.Name,
		Ref:    e.raw.ToolRequest.Ref,
		Output: output,
	})
	resp.Metadata = map[string]any{
		"interruptResponse": true,
	}
	return resp
}

// RejectedOutput is the tool output recorded when the operator declines.
// The model reads it and explains the cancellation to the operator.
func RejectedOutput(reason string) map[string]any {
	message := "Operator rejected this operation"
	if reason != "" {
		message = fmt.Sprintf("Operator rejected: %s", reason)
	}
	return map[string]any{
		"status":  "rejected",
		"message": message,
	}
}
