package state

import (
	"reflect"
	"sync"
)

// Kind is the kind of hook owning a slot.
type Kind uint8

const (
	KindSignal Kind = iota + 1
	KindMemo
	KindCache
)

func (k Kind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindMemo:
		return "memo"
	case KindCache:
		return "cache"
	default:
		return "unknown"
	}
}

// Slot is the persisted value of one hook call.
// Slots are shared by pointer between the states of successive passes.
type Slot struct {
	mu    sync.RWMutex
	kind  Kind
	value any
	deps  []any
}

// NewSignal creates a signal slot holding the initial value.
func NewSignal(initial any) *Slot {
	return &Slot{kind: KindSignal, value: initial}
}

// NewMemo creates a memo slot holding a computed value and the dependencies it was computed from.
func NewMemo(value any, deps []any) *Slot {
	return &Slot{kind: KindMemo, value: value, deps: deps}
}

// NewCacheSlot creates the placeholder slot of a hook that only reads the render cache.
func NewCacheSlot() *Slot {
	return &Slot{kind: KindCache}
}

// Kind returns the kind of hook owning the slot.
func (s *Slot) Kind() Kind { return s.kind }

// Load returns the current value.
func (s *Slot) Load() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Store replaces the current value.
func (s *Slot) Store(v any) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Update replaces the current value with fn applied to it and returns the new value.
func (s *Slot) Update(fn func(any) any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	return s.value
}

// Memo returns the stored value, recomputing it first when deps are not
// pairwise identical to the dependencies of the last computation.
func (s *Slot) Memo(deps []any, compute func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !SameDeps(s.deps, deps) {
		s.deps = deps
		s.value = compute()
	}
	return s.value
}

// SameDeps reports whether two dependency lists are pairwise identical.
func SameDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Identical reports whether two values are the same value.
// Comparable values are compared with ==, reference types (slices, maps,
// funcs, channels) by the address they point to. Anything else is never identical.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Type().Comparable() {
		// interface-typed fields may still hold uncomparable values
		defer func() { _ = recover() }()
		return a == b
	}
	return false
}
