package state

import "github.com/aretw0/weft/pkg/domain"

// ComponentState is the ordered list of hook slots of one component
// invocation plus its render-coordinate cache.
type ComponentState struct {
	Slots []*Slot
	Cache *Cache
}

// New returns an empty state for a component rendered at coord.
func New(coord domain.Coordinate) *ComponentState {
	return &ComponentState{Cache: NewCache(coord)}
}

// Derive returns the state of a matched component for the next pass.
// Slots are shared with the receiver. The cache is only carried over when
// replaying the same coordinate in cached mode.
func (cs *ComponentState) Derive(coord domain.Coordinate, mode domain.RenderMode) *ComponentState {
	if cs == nil {
		return New(coord)
	}
	next := &ComponentState{Slots: append([]*Slot(nil), cs.Slots...)}
	if mode == domain.ModeCached {
		next.Cache = cs.Cache.Clone(coord)
	} else {
		next.Cache = NewCache(coord)
	}
	return next
}

// Kinds returns the kinds of the slots in call order.
func (cs *ComponentState) Kinds() []Kind {
	if cs == nil {
		return nil
	}
	kinds := make([]Kind, len(cs.Slots))
	for i, s := range cs.Slots {
		kinds[i] = s.Kind()
	}
	return kinds
}
