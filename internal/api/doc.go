// Package api implements Movi's HTTP surface: the chat endpoints the admin
// pages talk to, the speech endpoints behind the mic button, and the JSON
// endpoints the dashboard and route manager render from.
//
// # Response envelope
//
// Every JSON endpoint wraps its payload:
//
//	{"data": ...}                                  on success
//	{"error": {"code": "...", "message": "..."}}   on failure
//
// Error codes are stable identifiers (invalid_request, not_found,
// conflict, rate_limited, unavailable, internal_error); messages are for
// humans and may change.
//
// # Chat streaming
//
// POST /api/v1/chat and POST /api/v1/chat/confirm respond with
// Server-Sent Events. Event names mirror the agent's stream vocabulary:
//
//	chunk         {"text": "..."}                    partial model output
//	tool_start    {"tool": "get_db_schema"}          tool call began
//	tool_complete {"tool": "get_db_schema"}          tool call finished
//	confirmation  {...pending confirmation...}       turn paused on a dangerous tool
//	done          {"response", "sessionId", ...}     turn finished
//	error         {"code", "message"}                turn failed
//
// A turn that pauses on a dangerous tool ends with confirmation followed
// by done with "interrupted": true; the client resumes it through the
// confirm endpoint with the operator's decision.
//
// # Middleware
//
// The handler chain is recovery, request ID, logging, CORS, then
// per-client rate limiting. Health probes bypass the chain entirely.
package api
