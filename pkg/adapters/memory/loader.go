package memory

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/weft/pkg/domain"
)

// Source implements ports.DocumentSource using an in-memory map.
type Source struct {
	docs map[string][]byte
}

// NewSource creates a new Source with the provided raw documents (YAML or JSON strings).
func NewSource(data map[string]string) *Source {
	docs := make(map[string][]byte)
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Source{
		docs: docs,
	}
}

// NewFromValues creates a new Source from structured documents.
// This handles serialization automatically, improving DX for tests.
func NewFromValues(values map[string]any) (*Source, error) {
	docs := make(map[string][]byte)
	for name, v := range values {
		if name == "" {
			return nil, fmt.Errorf("document missing name")
		}
		bytes, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document %s: %w", name, err)
		}
		docs[name] = bytes
	}
	return &Source{docs: docs}, nil
}

// Get retrieves the raw document by name.
func (s *Source) Get(ctx context.Context, name string) ([]byte, error) {
	content, ok := s.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	return content, nil
}

// List returns all available document names.
func (s *Source) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
