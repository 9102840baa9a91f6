package middleware_test

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Transcript
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Transcript),
	}
}

func (s *MockStore) Save(ctx context.Context, tr *domain.Transcript) error {
	s.data[tr.Thread] = tr
	return nil
}

func (s *MockStore) Load(ctx context.Context, thread string) (*domain.Transcript, error) {
	tr, ok := s.data[thread]
	if !ok {
		return nil, domain.ErrTranscriptNotFound
	}
	return tr, nil
}

func (s *MockStore) Delete(ctx context.Context, thread string) error {
	delete(s.data, thread)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.TranscriptStore = (*MockStore)(nil)

func transcript(thread, prompt string) *domain.Transcript {
	tr := domain.NewTranscript(thread)
	tr.Turns = append(tr.Turns, domain.TurnRecord{ID: "01", Prompt: prompt, System: "system " + prompt})
	return tr
}
