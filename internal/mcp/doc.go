// Package mcp exposes Movi's transit tools over the Model Context Protocol.
//
// The server registers the same fleet, network, and query tools the chat
// agent uses, so any MCP client (Claude Desktop, the genkit CLI, an IDE
// integration) can operate the shuttle database through the standard
// tools/list and tools/call requests. Tool handlers delegate to the
// toolsets in internal/tools; nothing here talks to the database directly.
//
// Two error channels are kept apart, matching the tools package:
//
//   - Operational failures (trip not found, duplicate route, blocked SQL,
//     pending removal confirmation) come back as a CallToolResult with
//     IsError set, so the client model can read the message and
//     self-correct. The text starts with the error code in brackets.
//   - System failures (database gone, marshaling bugs) surface as protocol
//     errors.
//
// remove_vehicle_from_trip keeps its two-step shape here: calling it on a
// booked trip without force returns the warning text and the deployment
// details as an error result, and the client repeats the call with
// force=true once the operator has confirmed. MCP has no interrupt
// mechanism, so the handler bypasses the Genkit interrupt path and calls
// the plain removal entry point.
//
// The server is transport agnostic; cmd wires it to stdio.
package mcp
