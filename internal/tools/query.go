package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/security"
	"github.com/movitransit/movi/internal/transit"
)

// QueryToolsetName is the registered name of the query toolset.
const QueryToolsetName = "query"

// ToolRunSQLQuery is the name of the ad-hoc SQL tool.
const ToolRunSQLQuery = "run_sql_query"

// RunSQLQueryInput defines input for run_sql_query.
type RunSQLQueryInput struct {
	Query string `json:"query" jsonschema_description:"SQL statement to execute (SELECT / INSERT / UPDATE / DELETE) using exact table and column names from the schema"`
	Mode  string `json:"mode,omitempty" jsonschema_description:"Either 'read' (SELECT only, the default) or 'write' (data changes allowed)"`
}

// QueryToolset provides the ad-hoc SQL escape hatch the model falls back to
// when no structured tool matches the request. Every statement passes the
// SQL validator before it reaches the database. It implements the Toolset
// interface.
type QueryToolset struct {
	store  *transit.Store
	sqlVal *security.SQL
	logger log.Logger
}

// NewQueryToolset creates a new QueryToolset.
func NewQueryToolset(store *transit.Store, sqlVal *security.SQL, logger log.Logger) (*QueryToolset, error) {
	if store == nil {
		return nil, fmt.Errorf("transit store is required")
	}
	if sqlVal == nil {
		return nil, fmt.Errorf("sql validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &QueryToolset{
		store:  store,
		sqlVal: sqlVal,
		logger: logger,
	}, nil
}

// Name returns the toolset identifier.
func (*QueryToolset) Name() string {
	return QueryToolsetName
}

// Register defines the ad-hoc SQL tool on g.
func (qt *QueryToolset) Register(g *genkit.Genkit) {
	genkit.DefineTool(g, ToolRunSQLQuery,
		"Run a SQL query against the transit database when no structured tool fits the request. "+
			"Use exact table and column names from the schema. "+
			"Read mode only allows SELECT; write mode allows data changes. "+
			"DROP, ALTER, PRAGMA, ATTACH, and DETACH are always blocked.",
		WithEvents(ToolRunSQLQuery, qt.RunSQLQuery))
}

// RunSQLQuery validates and executes an ad-hoc SQL statement.
//
// SELECT statements (in either mode) return a plain-text result table the
// model can read back to the operator. Write statements report the affected
// row count.
func (qt *QueryToolset) RunSQLQuery(ctx *ai.ToolContext, input RunSQLQueryInput) (Result, error) {
	mode := input.Mode
	if mode == "" {
		mode = security.QueryModeRead
	}

	qt.logger.Info("RunSQLQuery called", "mode", mode, "query_length", len(input.Query))

	if err := qt.sqlVal.Validate(input.Query, mode); err != nil {
		switch {
		case errors.Is(err, security.ErrUnsafeSQL):
			return Result{
				Status:  StatusError,
				Message: "Unsafe SQL command blocked.",
				Error: &Error{
					Code:    ErrCodeSecurity,
					Message: err.Error(),
				},
			}, nil
		case errors.Is(err, security.ErrNotSelect):
			return Result{
				Status:  StatusError,
				Message: "Only SELECT queries allowed in read mode.",
				Error: &Error{
					Code:    ErrCodeSecurity,
					Message: err.Error(),
				},
			}, nil
		default:
			return Result{
				Status:  StatusError,
				Message: "Query mode must be 'read' or 'write'.",
				Error: &Error{
					Code:    ErrCodeValidation,
					Message: err.Error(),
				},
			}, nil
		}
	}

	// SELECTs render a result table even in write mode, matching how the
	// operator expects query output to look.
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(input.Query)), "select") {
		qr, err := qt.store.ExecRead(ctx.Context, input.Query)
		if err != nil {
			return sqlFailed(err)
		}

		return Result{
			Status:  StatusSuccess,
			Message: renderTable(qr),
			Data: map[string]any{
				"columns":   qr.Columns,
				"rows":      qr.Rows,
				"row_count": len(qr.Rows),
			},
		}, nil
	}

	affected, err := qt.store.ExecWrite(ctx.Context, input.Query)
	if err != nil {
		return sqlFailed(err)
	}

	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Query executed successfully (%d rows affected).", affected),
		Data: map[string]any{
			"rows_affected": affected,
		},
	}, nil
}

// renderTable renders query results as a pipe-separated text table:
// a header line, a dash rule, then one line per row.
func renderTable(qr *transit.QueryResult) string {
	if len(qr.Rows) == 0 {
		return "Query executed. No rows returned."
	}

	header := strings.Join(qr.Columns, " | ")
	lines := make([]string, 0, len(qr.Rows)+2)
	lines = append(lines, header, strings.Repeat("-", len(header)))
	for _, row := range qr.Rows {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

func sqlFailed(err error) (Result, error) {
	return Result{
		Status:  StatusError,
		Message: fmt.Sprintf("SQL error: %v", err),
		Error: &Error{
			Code:    ErrCodeExecution,
			Message: err.Error(),
		},
	}, nil
}
