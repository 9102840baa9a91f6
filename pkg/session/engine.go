package session

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

// Engine adapts a Manager to ports.Engine.
type Engine struct {
	m *Manager
}

var _ ports.Engine = (*Engine)(nil)

// NewEngine wraps m.
func NewEngine(m *Manager) *Engine {
	return &Engine{m: m}
}

// Manager returns the wrapped manager.
func (e *Engine) Manager() *Manager { return e.m }

func (e *Engine) Render(ctx context.Context, req ports.RenderRequest) (ports.RenderedTurn, error) {
	strategy := Static()
	if req.Mutable {
		strategy = Mutable(req.Start)
	}
	turn, err := e.m.Render(ctx, req.Thread, strategy, req.Input)
	if err != nil {
		return ports.RenderedTurn{}, err
	}
	return rendered(turn), nil
}

func (e *Engine) Continue(ctx context.Context, thread string, input any) (ports.RenderedTurn, error) {
	turn, err := e.m.Continue(ctx, thread, input)
	if err != nil {
		return ports.RenderedTurn{}, err
	}
	return rendered(turn), nil
}

func (e *Engine) Execute(ctx context.Context, thread, action string, args map[string]any) (domain.ActionResult, error) {
	return e.m.Execute(ctx, thread, action, args)
}

func (e *Engine) Latest(_ context.Context, thread string) (ports.RenderedTurn, error) {
	turn, err := e.m.Latest(thread)
	if err != nil {
		return ports.RenderedTurn{}, err
	}
	return rendered(turn), nil
}

func (e *Engine) Threads(_ context.Context) ([]string, error) {
	return e.m.Threads(), nil
}

func rendered(t *Turn) ports.RenderedTurn {
	return ports.RenderedTurn{
		TurnRecord:  t.Record(),
		Thread:      t.State.Thread,
		Descriptors: t.Actions(),
	}
}
