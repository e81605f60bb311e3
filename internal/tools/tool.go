package tools

import (
	"github.com/firebase/genkit/go/genkit"
)

// Toolset groups the tools of one operational surface (fleet, network,
// query) and knows how to define them on a Genkit instance.
//
// Design principles:
// - Self-registration: each toolset owns its tool names and descriptions,
//   so the text the model sees lives next to the handlers it selects.
// - Dependency injection: stores and validators are constructor arguments;
//   Register only binds the already-wired handlers to the framework.
// - Idempotent construction: NewX validates dependencies and never touches
//   the database.
type Toolset interface {
	// Name returns the unique identifier of the toolset.
	Name() string

	// Register defines the toolset's tools on g. Handlers are wrapped with
	// WithEvents so tool starts and completions reach the chat stream.
	Register(g *genkit.Genkit)
}
