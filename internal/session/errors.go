package session

import "errors"

// TitleMaxLength is the maximum length of a session title in runes.
// Longer titles are truncated with an ellipsis.
const TitleMaxLength = 100

// History window constraints.
const (
	// DefaultHistoryLimit is the default number of messages loaded for a chat turn.
	DefaultHistoryLimit int32 = 100

	// MaxHistoryLimit is the absolute maximum to prevent OOM.
	MaxHistoryLimit int32 = 10000

	// MinHistoryLimit is the minimum allowed value for history limit.
	MinHistoryLimit int32 = 10
)

// Sentinel errors for session operations.
// These errors are part of the Store's public API and should be checked using errors.Is().
//
// Example:
//
//	sess, err := store.Session(ctx, id)
//	if errors.Is(err, session.ErrSessionNotFound) {
//	    // Handle missing session
//	}
var (
	// ErrSessionNotFound indicates the requested session does not exist in the database.
	ErrSessionNotFound = errors.New("session not found")
)

// NormalizeHistoryLimit normalizes the history limit value.
// Returns DefaultHistoryLimit for zero/negative values.
// Clamps to MinHistoryLimit/MaxHistoryLimit as bounds.
func NormalizeHistoryLimit(limit int32) int32 {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit < MinHistoryLimit {
		return MinHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
