// Package security provides validators that sit between the agent and
// anything it can damage.
//
// # Overview
//
// The transit agent generates SQL and receives free-form operator input.
// Two validators cover those surfaces:
//
// SQL Validator: blocks schema destruction and engine escapes in
// model-generated statements, and enforces the read/write mode contract.
//
//	sqlVal := security.NewSQL()
//	if err := sqlVal.Validate(query, security.QueryModeRead); err != nil {
//	    return fmt.Errorf("query rejected: %w", err)
//	}
//
// Prompt Validator: detects common prompt injection patterns in operator
// input so the server can log them before the text reaches the model.
//
//	promptVal := security.NewPromptValidator()
//	if !promptVal.IsSafe(userInput) {
//	    logger.Warn("possible prompt injection", "security_event", "prompt_injection")
//	}
//
// # Design Principles
//
// Validators fail closed: anything not recognized as safe is rejected.
// Violations are logged with a security_event attribute so they can be
// filtered and alerted on.
package security
