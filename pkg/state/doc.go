// Package state holds the persisted hook state of rendered components.
//
// Every hook call made by a component owns a Slot. The slots of one component
// invocation are kept, in call order, in a ComponentState that travels with the
// resolved tree: when the next pass matches the same component, it derives a new
// ComponentState sharing the same slots, so values survive across turns.
//
// Reads are frozen per render coordinate by a Cache: the first value observed at a
// given (step, tool call) is the value every later read at that coordinate sees,
// which makes replaying an already rendered coordinate idempotent.
//
// Slots that must be shared by every thread of a session live in a Store, keyed by
// component path and hook index instead of travelling with a tree.
package state
