package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
)

// Store implements ports.TranscriptStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Transcript
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Transcript),
	}
}

// Save persists the transcript in memory.
func (s *Store) Save(ctx context.Context, transcript *domain.Transcript) error {
	// Copy to ensure isolation, similar to serialization
	copied := transcript.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[transcript.Thread] = copied
	return nil
}

// Load retrieves the transcript from memory.
func (s *Store) Load(ctx context.Context, thread string) (*domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, ok := s.data[thread]
	if !ok {
		return nil, domain.ErrTranscriptNotFound
	}

	// Copy on read so callers can't mutate the stored transcript by pointer
	return tr.Clone(), nil
}

// Delete removes the transcript.
func (s *Store) Delete(ctx context.Context, thread string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, thread)
	return nil
}

// List returns the stored threads, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]string, 0, len(s.data))
	for name := range s.data {
		threads = append(threads, name)
	}
	sort.Strings(threads)
	return threads, nil
}
