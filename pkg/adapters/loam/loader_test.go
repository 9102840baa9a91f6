package loam

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/internal/testutils"
	"github.com/aretw0/weft/pkg/document"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/prompt"
	"github.com/aretw0/weft/pkg/serializer"
)

func newSource(t *testing.T, files map[string]string) *Source {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, files)
	return New(loam.NewTypedRepository[PromptMetadata](repo))
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestSource_Get(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	ctx := context.Background()

	err := repo.Save(ctx, core.Document{
		ID: "greeting.md",
		Content: `---
description: Says hello
body:
  - p: Hello!
actions:
  - name: wave
---
Be warm.`,
	})
	require.NoError(t, err)

	source := New(loam.NewTypedRepository[PromptMetadata](repo))
	data, err := source.Get(ctx, "greeting")
	require.NoError(t, err)

	doc := decode(t, data)
	assert.Equal(t, "greeting", doc["name"], "name defaults to the normalized id")
	assert.Equal(t, "Says hello", doc["description"])
	assert.Equal(t, "Be warm.", doc["content"])
	assert.Len(t, doc["actions"], 1)
	assert.NotContains(t, doc, "system")
}

func TestSource_GetNotFound(t *testing.T) {
	source := newSource(t, nil)
	_, err := source.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestSource_List_NormalizesIDs(t *testing.T) {
	source := newSource(t, map[string]string{
		"start.md": `---
id: start.md
---
Hello`,
		"choice.json": `{"id": "choice.json", "body": ["pick one"]}`,
		"implicit.md": `---
description: ID is implied from filename
---`,
	})

	ids, err := source.List(context.Background())
	require.NoError(t, err)

	assert.Contains(t, ids, "start", "start.md should become start")
	assert.Contains(t, ids, "choice", "choice.json should become choice")
	assert.Contains(t, ids, "implicit", "implicit.md should become implicit")
	assert.Len(t, ids, 3)
}

func TestSource_List_DetectsCollisions(t *testing.T) {
	source := newSource(t, map[string]string{
		"foo.md": `---
id: foo
---
Explicit ID`,
		"foo.json": `{"id": "foo"}`,
	})

	_, err := source.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "foo")
}

func TestSource_CompilesWithLibrary(t *testing.T) {
	source := newSource(t, map[string]string{
		"main.md": `---
system: [You are terse.]
body:
  - x-task:
      - ul: [one, 2]
  - include: footer
---`,
		"footer.md": `---
actions:
  - name: done
    executor: terminate
---
Thanks!`,
	})

	lib := document.NewLibrary(source)
	root, err := lib.Compile(context.Background(), "main")
	require.NoError(t, err)

	out, err := prompt.NewResolver().Resolve(context.Background(), root, prompt.Pass{Thread: domain.NewThreadState("main")})
	require.NoError(t, err)
	text, err := serializer.Stringify(out.Tree)
	require.NoError(t, err)

	assert.Equal(t, "You are terse.", text.System)
	assert.Equal(t, "<task>\n- one\n- 2\n</task>\n\nThanks!", text.Prompt)
	assert.Equal(t, []string{"done"}, text.Actions)
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "a/b", trimExtension("a/b.md"))
	assert.Equal(t, "plain", trimExtension("plain"))
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"body": []any{map[any]any{"p": "hi", 1: []any{map[any]any{"x": true}}}},
	}
	want := map[string]any{
		"body": []any{map[string]any{"p": "hi", "1": []any{map[string]any{"x": true}}}},
	}
	assert.Equal(t, want, normalize(in))
}
