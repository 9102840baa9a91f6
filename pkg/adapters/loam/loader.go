package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

var (
	_ ports.DocumentSource = (*Source)(nil)
	_ ports.Watchable      = (*Source)(nil)
)

// Source adapts a Loam repository to the ports.DocumentSource interface.
type Source struct {
	Repo *loam.TypedRepository[PromptMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[PromptMetadata]) *Source {
	return &Source{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam repository: %w", err)
	}
	return New(loam.NewTypedRepository[PromptMetadata](repo)), nil
}

// Get returns the document as JSON, with the markdown body as its content.
// Names are looked up without extension ("greeting" finds greeting.md).
func (s *Source) Get(ctx context.Context, name string) ([]byte, error) {
	doc, err := s.Repo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrDocumentNotFound, name, err)
	}

	meta := doc.Data
	data := map[string]any{
		"name": meta.Name,
	}
	if data["name"] == "" {
		data["name"] = documentID(meta.ID, doc.ID)
	}
	if meta.Description != "" {
		data["description"] = meta.Description
	}
	if meta.System != nil {
		data["system"] = meta.System
	}
	if meta.Body != nil {
		data["body"] = meta.Body
	}
	if len(meta.Actions) > 0 {
		data["actions"] = meta.Actions
	}
	if content := strings.TrimSpace(doc.Content); content != "" {
		data["content"] = content
	}

	bytes, err := json.Marshal(normalize(data))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document %s: %w", name, err)
	}
	return bytes, nil
}

// List lists all documents in the repository.
func (s *Source) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := documentID(doc.Data.ID, doc.ID)
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

// Watch reports the names of documents that changed until ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// normalize converts the map[any]any values some YAML decoders produce so the
// document can be marshaled as JSON.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	}
	return v
}

// documentID prefers the id declared in metadata over the file path.
func documentID(declared, path string) string {
	if declared == "" {
		declared = path
	}
	return trimExtension(declared)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
