package ports

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
)

// RenderRequest selects how a thread is rendered.
type RenderRequest struct {
	Thread string `json:"thread"`
	// Mutable re-derives earlier steps starting at Start.
	Mutable bool `json:"mutable,omitempty"`
	// Start is an absolute step when >= 0 and relative to the next step when negative.
	Start int `json:"start,omitempty"`
	Input any `json:"input,omitempty"`
}

// RenderedTurn is a rendered turn together with the actions it exposes.
type RenderedTurn struct {
	domain.TurnRecord
	Thread      string                    `json:"thread"`
	Descriptors []domain.ActionDescriptor `json:"descriptors,omitempty"`
}

// Engine is the conversation surface exposed by transport adapters.
type Engine interface {
	// Render renders the next step of a thread.
	Render(ctx context.Context, req RenderRequest) (RenderedTurn, error)

	// Continue renders the next tool-call sub-step of the latest step.
	Continue(ctx context.Context, thread string, input any) (RenderedTurn, error)

	// Execute runs an action declared by the latest turn of a thread.
	Execute(ctx context.Context, thread, action string, args map[string]any) (domain.ActionResult, error)

	// Latest returns the latest turn of a thread.
	Latest(ctx context.Context, thread string) (RenderedTurn, error)

	// Threads lists the known threads.
	Threads(ctx context.Context) ([]string, error)
}
