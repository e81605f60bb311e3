package transit

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/movitransit/movi/internal/log"
)

// Store provides access to the transit database.
type Store struct {
	db     *sqlx.DB
	logger log.Logger
}

// StoreConfig holds the dependencies for creating a Store.
type StoreConfig struct {
	DB     *sqlx.DB
	Logger log.Logger
}

// NewStore creates a transit store.
// Panics if logger is nil (programmer error).
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Logger == nil {
		panic("transit: logger is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Store{db: cfg.DB, logger: cfg.Logger}, nil
}

// DB exposes the underlying connection for migrations and health checks.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure on the given table.column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
