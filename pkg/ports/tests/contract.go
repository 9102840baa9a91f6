package tests

import (
	"context"
	"testing"

	"github.com/aretw0/weft/pkg/ports"
)

// DocumentSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.DocumentSource.
func DocumentSourceContractTest(t *testing.T, source ports.DocumentSource, setupData map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Success", func(t *testing.T) {
		for name, expected := range setupData {
			content, err := source.Get(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting document %s: %v", name, err)
			}
			if string(content) != string(expected) {
				t.Errorf("content mismatch for %s. got %q, want %q", name, content, expected)
			}
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		if _, err := source.Get(ctx, "non-existent-document"); err == nil {
			t.Error("expected error for non-existent document, got nil")
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := source.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing documents: %v", err)
		}
		if len(names) != len(setupData) {
			t.Errorf("expected %d documents, got %d", len(setupData), len(names))
		}
		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}
		for name := range setupData {
			if !lookup[name] {
				t.Errorf("document %s missing from list", name)
			}
		}
	})
}
