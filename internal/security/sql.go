package security

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Query modes for ad-hoc SQL execution.
const (
	QueryModeRead  = "read"
	QueryModeWrite = "write"
)

var (
	// ErrUnsafeSQL indicates the statement contains a blocked fragment.
	ErrUnsafeSQL = errors.New("unsafe SQL command blocked")

	// ErrNotSelect indicates a read-mode statement is not a SELECT.
	ErrNotSelect = errors.New("only SELECT queries allowed in read mode")

	// ErrInvalidQueryMode indicates an unknown query mode.
	ErrInvalidQueryMode = errors.New("query mode must be read or write")
)

// SQL validates model-generated statements before they reach the database.
// The agent is allowed to write ad-hoc SQL against the transit schema; this
// validator is the last gate before execution (CWE-89 adjacent, though the
// threat here is a misbehaving model rather than a classic injection).
type SQL struct {
	bannedFragments []string
}

// NewSQL creates a SQL validator with the default blocklist.
//
// Blocked fragments cover schema destruction (DROP, ALTER) and engine
// escapes (PRAGMA, ATTACH, DETACH). Row-level writes stay allowed in write
// mode: updating deployments and trips is what the console is for.
func NewSQL() *SQL {
	return &SQL{
		bannedFragments: []string{
			"drop ", "alter ", "pragma", "attach", "detach",
		},
	}
}

// Validate checks a statement against the blocklist and the mode contract.
// Matching is substring-based on the lowercased statement, so comments and
// string literals can trip it; that is acceptable for generated SQL.
func (v *SQL) Validate(query, mode string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if mode != QueryModeRead && mode != QueryModeWrite {
		return fmt.Errorf("%w, got %q", ErrInvalidQueryMode, mode)
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	for _, fragment := range v.bannedFragments {
		if strings.Contains(normalized, fragment) {
			slog.Warn("unsafe SQL blocked",
				"fragment", strings.TrimSpace(fragment),
				"mode", mode,
				"security_event", "sql_blocklist_violation")
			return fmt.Errorf("%w: contains %q", ErrUnsafeSQL, strings.TrimSpace(fragment))
		}
	}

	if mode == QueryModeRead && !strings.HasPrefix(normalized, "select") {
		slog.Warn("non-SELECT statement in read mode",
			"security_event", "sql_read_mode_violation")
		return ErrNotSelect
	}

	return nil
}
