package tools

// Status values reported in tool results.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes classify tool failures for the model.
// The model uses these to decide whether to retry, rephrase, or report back.
const (
	// ErrCodeNotFound indicates a referenced entity (trip, path, vehicle...) does not exist.
	ErrCodeNotFound = "NOT_FOUND"

	// ErrCodeValidation indicates the input was malformed or inapplicable.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeSecurity indicates a guardrail blocked the operation.
	ErrCodeSecurity = "SECURITY_VIOLATION"

	// ErrCodeConfirmation indicates a destructive operation needs an explicit
	// user confirmation before it can proceed.
	ErrCodeConfirmation = "CONFIRMATION_REQUIRED"

	// ErrCodeExecution indicates the underlying database operation failed.
	ErrCodeExecution = "EXECUTION_ERROR"
)

// Error is the structured failure payload inside a Result.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Result is the uniform envelope every tool returns to the model.
//
// Operational failures (trip not found, duplicate route, blocked SQL) are
// encoded as Status == StatusError with a nil Go error, so the model sees
// them and can self-correct. A non-nil Go error is reserved for system
// failures and for Genkit interrupts.
//
// Message carries the human-readable outcome and is what the assistant
// normally relays to the operator. Data carries structured values for
// clients that want more than prose.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}
