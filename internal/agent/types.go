package agent

import (
	"github.com/Konaiko01/ZetaonAI/internal/tools"
)

// Descriptor is the fixed definition of one specialist agent: its identity,
// routing description, model, system instructions and tool surface. Built at
// process start and never mutated.
type Descriptor struct {
	ID          string
	Description string
	// Model overrides the default model for this agent; empty means default.
	Model string
	// Instructions may contain the {{CURRENT_DATETIME}} token, substituted
	// when the turn context is materialized.
	Instructions string
	// Tools is nil for agents that answer from the model alone.
	Tools tools.Registry
}
