package transit

import (
	"context"
	"fmt"
	"strings"
)

// SchemaDDL returns the CREATE TABLE statements of the live database, one
// per table with a "-- Table: name" header, separated by blank lines. The
// agent embeds this in its system prompt so generated SQL matches the real
// schema instead of a guess.
func (s *Store) SchemaDDL(ctx context.Context) (string, error) {
	var tables []struct {
		Name string `db:"name"`
		SQL  string `db:"sql"`
	}
	err := s.db.SelectContext(ctx, &tables, `
		SELECT name, sql FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND name != 'schema_migrations'
		ORDER BY name`)
	if err != nil {
		return "", fmt.Errorf("read schema: %w", err)
	}
	if len(tables) == 0 {
		return "(no tables found)", nil
	}

	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, fmt.Sprintf("-- Table: %s\n%s", t.Name, strings.TrimSpace(t.SQL)))
	}
	return strings.Join(stmts, "\n\n"), nil
}

// fkViolation is one row of PRAGMA foreign_key_check.
type fkViolation struct {
	Table  string `db:"table"`
	RowID  *int64 `db:"rowid"`
	Parent string `db:"parent"`
	FKID   int64  `db:"fkid"`
}

// CheckReferentialIntegrity runs SQLite's foreign key check across every
// table and returns an error naming the first violation found.
func (s *Store) CheckReferentialIntegrity(ctx context.Context) error {
	var violations []fkViolation
	if err := s.db.SelectContext(ctx, &violations, `PRAGMA foreign_key_check`); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if len(violations) > 0 {
		v := violations[0]
		return fmt.Errorf("foreign key violation: table %s references missing %s (%d total)",
			v.Table, v.Parent, len(violations))
	}
	return nil
}
