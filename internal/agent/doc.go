// Package agent provides the shared kernel of the Movi assistant.
//
// # Overview
//
// This package holds the types every layer of the assistant agrees on:
//
//   - PageBusDashboard / PageManageRoute: the admin pages whose context
//     steers prompt building and tool selection
//   - Event / PendingConfirmation: the stream vocabulary shared by the chat
//     flow, the SSE handler, and the REST deployment endpoint
//   - InterruptEvent / ConfirmationResponse: the confirmation flow that pauses
//     dangerous operations until the operator decides
//   - ImagePart / UserMessage: vision input helpers for the chat panel
//
// # Errors
//
// Sentinel errors for consistent handling across layers:
//
//	agent.ErrInvalidSession          // Invalid session ID format
//	agent.ErrExecutionFailed         // LLM or tool execution failed
//	agent.ErrNoPendingConfirmation   // Confirm decision with nothing pending
//
// # Usage
//
// The chat subpackage implements the assistant on top of these types:
//
//	import "github.com/movitransit/movi/internal/chat"
//
//	assistant, err := chat.New(chat.Config{
//	    Genkit:   g,
//	    Sessions: sessionStore,
//	    Transit:  transitStore,
//	    Fleet:    fleetToolset,
//	    Logger:   logger,
//	    Tools:    tools.NewRegistry(g).All(ctx),
//	})
//
// See the chat package for the complete implementation.
package agent
