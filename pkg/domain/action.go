package domain

import (
	"context"

	"github.com/aretw0/weft/pkg/schema"
)

// Executor is the implementation behind an action.
// It receives the arguments chosen by the model and returns a result or error.
type Executor func(ctx context.Context, args map[string]any) (any, error)

// ActionDescriptor describes a capability exposed to the model generator.
type ActionDescriptor struct {
	// Name is the derived, sanitized name. When declared it is the local name,
	// the resolver prefixes it with the ids of the enclosing blocks.
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  schema.Schema `json:"parameters,omitempty"`
	Execute     Executor      `json:"-"`

	// RenderInline makes the serializer emit a stub describing the action in the prompt.
	RenderInline bool `json:"render_inline,omitempty"`
}

// Outcome is what the orchestrator should do after an action ran.
type Outcome string

const (
	OutcomeContinue  Outcome = "continue"
	OutcomeRedirect  Outcome = "redirect"
	OutcomeTerminate Outcome = "terminate"
)

// ActionState is the control decision recorded by an executor.
type ActionState struct {
	Outcome  Outcome `json:"outcome"`
	Thread   string  `json:"thread,omitempty"`   // set for OutcomeRedirect
	Response any     `json:"response,omitempty"` // set for OutcomeTerminate
}

// ActionResult is returned by executing an action.
type ActionResult struct {
	Action string      `json:"action"`
	State  ActionState `json:"state"`
	Value  any         `json:"value,omitempty"`
}
