package mcp

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/movitransit/movi/internal/tools"
)

// registerQueryTools registers the ad-hoc SQL escape hatch.
// Tools: run_sql_query
func (s *Server) registerQueryTools() error {
	querySchema, err := jsonschema.For[tools.RunSQLQueryInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", tools.ToolRunSQLQuery, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: tools.ToolRunSQLQuery,
		Description: "Run a SQL query against the transit database when no structured tool fits the request. " +
			"Read mode only allows SELECT. Write mode allows data changes. " +
			"DROP, ALTER, PRAGMA, ATTACH, and DETACH are always blocked.",
		InputSchema: querySchema,
	}, s.RunSQLQuery)

	return nil
}

// RunSQLQuery handles the run_sql_query MCP tool call.
func (s *Server) RunSQLQuery(ctx context.Context, req *mcp.CallToolRequest, input tools.RunSQLQueryInput) (*mcp.CallToolResult, any, error) {
	toolCtx := &ai.ToolContext{Context: ctx}
	result, err := s.query.RunSQLQuery(toolCtx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("run_sql_query failed: %w", err)
	}

	return resultToMCP(result, s.logger), nil, nil
}
