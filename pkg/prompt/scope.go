package prompt

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/state"
)

// Scope is handed to a component while it renders. Hooks take it as their first
// argument and panic once the component has returned.
type Scope struct {
	ctx      context.Context
	run      *run
	path     string
	state    *state.ComponentState
	previous int  // slots inherited from the matched component
	matched  bool // whether the component matched the previous pass
	cursor   int
	snap     snapshot
	active   atomic.Bool
}

// Context returns the context of the resolution pass.
func (s *Scope) Context() context.Context { return s.ctx }

// Path returns the stable path of the component.
func (s *Scope) Path() string { return s.path }

// Thread returns the thread being rendered.
func (s *Scope) Thread() domain.ThreadState {
	s.check()
	return s.run.thread
}

func (s *Scope) check() {
	if s == nil || !s.active.Load() {
		panic(domain.ErrOutsideRender)
	}
}

// HookOption configures a stateful hook.
type HookOption func(*hookConfig)

type hookConfig struct {
	crossThread bool
}

// CrossThread shares the hook's state between all threads of the session.
func CrossThread() HookOption {
	return func(c *hookConfig) { c.crossThread = true }
}

// slot claims the next hook index and returns its slot, creating it with create
// the first time the component renders.
func (s *Scope) slot(kind state.Kind, opts []HookOption, create func() *state.Slot) (int, *state.Slot) {
	s.check()
	var cfg hookConfig
	for _, o := range opts {
		o(&cfg)
	}

	index := s.cursor
	s.cursor++

	var slot *state.Slot
	switch {
	case index < s.previous:
		slot = s.state.Slots[index]
		if slot.Kind() != kind {
			panic(&domain.HookOrderError{Component: s.path, Index: index, Want: slot.Kind().String(), Got: kind.String()})
		}
	case s.matched:
		panic(&domain.HookOrderError{Component: s.path, Index: index, Got: kind.String()})
	}

	if cfg.crossThread {
		shared, _ := s.run.store.LoadOrCreate(state.Key{Path: s.path, Index: index}, create)
		if shared.Kind() != kind {
			panic(&domain.HookOrderError{Component: s.path, Index: index, Want: shared.Kind().String(), Got: kind.String()})
		}
		slot = shared
	} else if slot == nil {
		slot = create()
	}

	if index < len(s.state.Slots) {
		s.state.Slots[index] = slot
	} else {
		s.state.Slots = append(s.state.Slots, slot)
	}
	return index, slot
}

// finish closes the scope and verifies every inherited hook was called again.
func (s *Scope) finish() error {
	s.active.Store(false)
	if s.matched && s.cursor < s.previous {
		return &domain.HookOrderError{
			Component: s.path,
			Index:     s.cursor,
			Want:      s.state.Slots[s.cursor].Kind().String(),
		}
	}
	return nil
}
