package prompt

import "github.com/aretw0/weft/pkg/state"

// Signal is a persisted value of a component.
type Signal[T any] struct {
	slot   *state.Slot
	frozen T
}

// Get returns the value observed when the signal was first read at the current
// render coordinate. Writes made during the pass show from the next coordinate on.
func (s Signal[T]) Get() T { return s.frozen }

// Set replaces the value.
func (s Signal[T]) Set(v T) { s.slot.Store(v) }

// Update replaces the value with fn applied to the latest value and returns it.
func (s Signal[T]) Update(fn func(T) T) T {
	return cast[T](s.slot.Update(func(v any) any { return fn(cast[T](v)) }))
}

// Latest returns the value including writes made since the signal was read.
func (s Signal[T]) Latest() T { return cast[T](s.slot.Load()) }

// UseSignal returns a signal holding initial on the component's first render.
func UseSignal[T any](s *Scope, initial T, opts ...HookOption) Signal[T] {
	index, slot := s.slot(state.KindSignal, opts, func() *state.Slot {
		return state.NewSignal(initial)
	})
	return Signal[T]{slot: slot, frozen: cast[T](s.state.Cache.Remember(index, slot.Load()))}
}

// UseComputed is UseSignal with an initial value computed only on the first render.
func UseComputed[T any](s *Scope, init func() T, opts ...HookOption) T {
	index, slot := s.slot(state.KindSignal, opts, func() *state.Slot {
		return state.NewSignal(init())
	})
	return cast[T](s.state.Cache.Remember(index, slot.Load()))
}

// UseState returns the signal's value for this render and its setter.
func UseState[T any](s *Scope, initial T, opts ...HookOption) (T, func(T)) {
	sig := UseSignal(s, initial, opts...)
	return sig.Get(), sig.Set
}

// UseMemo returns fn's result, recomputed only when deps are not pairwise
// identical to the deps of the previous render.
func UseMemo[T any](s *Scope, fn func() T, deps ...any) T {
	compute := func() any { return fn() }
	index, slot := s.slot(state.KindMemo, nil, func() *state.Slot {
		return state.NewMemo(compute(), deps)
	})
	return cast[T](s.state.Cache.Remember(index, slot.Memo(deps, compute)))
}

// UseCache returns value the first time it is called at the current render
// coordinate and the first value for every later call at that coordinate.
func UseCache[T any](s *Scope, value T) T {
	index, _ := s.slot(state.KindCache, nil, state.NewCacheSlot)
	return cast[T](s.state.Cache.Remember(index, value))
}

// UseContext returns the value of the nearest enclosing provider of c, or its default.
func UseContext[T any](s *Scope, c *Context[T]) T {
	s.check()
	return lookup(s.snap, c)
}

// UseInput returns the input of the current run when it is a T.
func UseInput[T any](s *Scope) (T, bool) {
	s.check()
	v, ok := s.run.input.(T)
	return v, ok
}

// UseThread returns the name of the thread being rendered.
func UseThread(s *Scope) string {
	return s.Thread().Thread
}

func cast[T any](v any) T {
	t, _ := v.(T)
	return t
}
