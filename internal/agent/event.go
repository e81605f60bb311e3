package agent

// EventType classifies the events of one assistant turn.
type EventType string

const (
	// EventText carries a partial text chunk of the model response.
	EventText EventType = "text"

	// EventToolStart marks the beginning of a tool call.
	EventToolStart EventType = "tool_start"

	// EventToolComplete marks a finished tool call.
	EventToolComplete EventType = "tool_complete"

	// EventConfirmation asks the operator to approve or reject a paused
	// dangerous operation. The turn ends here until /chat/confirm is called.
	EventConfirmation EventType = "confirmation"

	// EventDone closes the turn with the final response text.
	EventDone EventType = "done"

	// EventError reports a failed turn.
	EventError EventType = "error"
)

// Event is one frame of the assistant's output stream. The chat flow emits
// events through its streaming callback and the web layer forwards them to
// the browser as server-sent events.
type Event struct {
	Type EventType `json:"type"`

	// Text is set on EventText (partial chunk) and EventDone (full response).
	Text string `json:"text,omitempty"`

	// Tool is the tool name on EventToolStart and EventToolComplete.
	Tool string `json:"tool,omitempty"`

	// Confirmation is set on EventConfirmation.
	Confirmation *PendingConfirmation `json:"confirmation,omitempty"`

	// Error is the message on EventError.
	Error string `json:"error,omitempty"`
}

// PendingConfirmation is what the operator sees before deciding on a paused
// operation. It is rendered in the chat panel as a confirm/cancel prompt and
// mirrored in the 409 body of the REST deployment endpoint.
type PendingConfirmation struct {
	SessionID   string         `json:"session_id"`
	ToolName    string         `json:"tool_name"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Consequence string         `json:"consequence"`
	DangerLevel string         `json:"danger_level,omitempty"`
}
