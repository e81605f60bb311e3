package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/tools"
)

// resultToMCP converts a tools.Result to an MCP tool result.
//
// Failures become an IsError result whose text leads with the error code,
// followed by the operator-facing message. Error details are domain data
// (trip, route, booking percentage, deployed vehicle), not internals, and
// the removal confirmation flow needs them, so they are appended as JSON
// rather than redacted. Successes serialize the whole envelope, the same
// status/message/data shape the REST API returns.
func resultToMCP(result tools.Result, logger log.Logger) *mcp.CallToolResult {
	if result.Status == tools.StatusError {
		errorText := fmt.Sprintf("[%s] %s", result.Error.Code, result.Message)
		if len(result.Error.Details) > 0 {
			detailsJSON, err := json.Marshal(result.Error.Details)
			if err != nil {
				logger.Warn("marshaling error details", "error", err)
			} else {
				errorText += fmt.Sprintf("\nDetails: %s", string(detailsJSON))
			}
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: errorText}},
			IsError: true,
		}
	}

	b, err := json.Marshal(result)
	if err != nil {
		logger.Error("marshaling tool result", "error", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "[EXECUTION_ERROR] could not serialize the tool result"}},
			IsError: true,
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}
