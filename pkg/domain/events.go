package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRender EventType = "render"
	EventAction EventType = "action"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Thread    string    `json:"thread"`
}

// RenderEvent reports one completed (or failed) resolution pass.
type RenderEvent struct {
	EventBase
	Coordinate Coordinate    `json:"coordinate"`
	Mode       RenderMode    `json:"mode"`
	Actions    int           `json:"actions"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// ActionEvent reports one action execution.
type ActionEvent struct {
	EventBase
	Action   string        `json:"action"`
	Outcome  Outcome       `json:"outcome,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnRender func(context.Context, *RenderEvent)
	OnAction func(context.Context, *ActionEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRender: chain(h.OnRender, other.OnRender),
		OnAction: chain(h.OnAction, other.OnAction),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
