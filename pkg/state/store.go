package state

import (
	"fmt"
	"sync"
)

// Key addresses a cross-thread slot.
type Key struct {
	Path  string
	Index int
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.Path, k.Index)
}

// Store holds the slots shared by all threads of a session.
type Store struct {
	mu    sync.Mutex
	slots map[Key]*Slot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{slots: make(map[Key]*Slot)}
}

// LoadOrCreate returns the slot stored under key, creating it with create when absent.
func (s *Store) LoadOrCreate(key Key, create func() *Slot) (slot *Slot, loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[key]; ok {
		return slot, true
	}
	slot = create()
	s.slots[key] = slot
	return slot, false
}

// Get returns the slot stored under key.
func (s *Store) Get(key Key) (*Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[key]
	return slot, ok
}

// Len returns the number of stored slots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
