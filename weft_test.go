package weft_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/testutils"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/observability"
	"github.com/aretw0/weft/pkg/ports"
)

const support = `
system: You are a support agent.
body:
  - p: Hello!
  - input: "The user said: %v"
actions:
  - name: search
    description: Search the knowledge base
    executor: kb.search
    parameters:
      query: string
  - name: escalate
    description: Hand the conversation to a human
    executor: "redirect:human"
  - name: done
    description: End the conversation
    executor: terminate
`

func TestFacade_Loam(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"main.md": "---\nsystem: You are concise.\nbody:\n  - p: Hello world!\n---\nReply in one line.\n",
	})

	eng, err := weft.New(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, eng.Name)
	assert.Equal(t, weft.DefaultEntry, eng.Entry())

	turn, err := eng.Render(context.Background(), ports.RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Hello world!\n\nReply in one line.", turn.Prompt)
	assert.Equal(t, "You are concise.", turn.System)
}

func TestNew_RequiresPathOrSource(t *testing.T) {
	_, err := weft.New("")
	assert.Error(t, err)
}

func TestNew_MissingEntry(t *testing.T) {
	_, err := weft.New("", weft.WithSource(memory.NewSource(map[string]string{"other": "body: [hi]"})))
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = weft.New("", weft.WithSource(memory.NewSource(map[string]string{"other": "body: [hi]"})), weft.WithEntry("other"))
	assert.NoError(t, err)
}

func TestEngine_Conversation(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	search := func(ctx context.Context, args map[string]any) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		queries = append(queries, args["query"].(string))
		return "found 3 articles", nil
	}

	store := memory.NewStore()
	metrics := observability.NewMetrics()
	var rendered []domain.Coordinate
	eng, err := weft.New("support",
		weft.WithSource(memory.NewSource(map[string]string{"main": support})),
		weft.WithExecutor("kb.search", search),
		weft.WithStore(store),
		weft.WithMetrics(metrics),
		weft.WithLifecycleHooks(domain.LifecycleHooks{
			OnRender: func(_ context.Context, ev *domain.RenderEvent) {
				rendered = append(rendered, ev.Coordinate)
			},
		}),
	)
	require.NoError(t, err)
	assert.Same(t, metrics, eng.Metrics())
	ctx := context.Background()

	turn, err := eng.Render(ctx, ports.RenderRequest{Thread: "main", Input: "where is my refund?"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!\n\nThe user said: where is my refund?", turn.Prompt)
	assert.Equal(t, "You are a support agent.", turn.System)
	assert.Equal(t, []string{"search", "escalate", "done"}, turn.Actions)

	res, err := eng.Execute(ctx, "main", "search", map[string]any{"query": "refund"})
	require.NoError(t, err)
	assert.Equal(t, "found 3 articles", res.Value)
	assert.Equal(t, []string{"refund"}, queries)

	_, err = eng.Execute(ctx, "main", "search", map[string]any{})
	assert.Error(t, err)

	res, err = eng.Execute(ctx, "main", "escalate", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRedirect, res.State.Outcome)
	assert.Equal(t, "human", res.State.Thread)

	res, err = eng.Execute(ctx, "main", "done", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeTerminate, res.State.Outcome)

	_, err = eng.Continue(ctx, "main", nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Coordinate{{Step: 0}, {Step: 0, ToolCall: 1}}, rendered)

	tr, err := store.Load(ctx, "main")
	require.NoError(t, err)
	require.Len(t, tr.Turns, 2)
	assert.Equal(t, 1, tr.Turns[1].ToolCall)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Renders.WithLabelValues("main", "next")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Actions.WithLabelValues("search", "continue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Actions.WithLabelValues("search", "error")))
}

func TestEngine_Gap(t *testing.T) {
	eng, err := weft.New("",
		weft.WithSource(memory.NewSource(map[string]string{"main": "body: [{p: a}, {p: b}]"})),
		weft.WithGap(1),
	)
	require.NoError(t, err)

	turn, err := eng.Render(context.Background(), ports.RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", turn.Prompt)
}

// watchedSource is a document source whose documents can be replaced during a test.
type watchedSource struct {
	mu      sync.Mutex
	docs    map[string]string
	changes chan string
}

func (s *watchedSource) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[name]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return []byte(doc), nil
}

func (s *watchedSource) List(ctx context.Context) ([]string, error) {
	return []string{"main"}, nil
}

func (s *watchedSource) Watch(ctx context.Context) (<-chan string, error) {
	return s.changes, nil
}

func (s *watchedSource) set(name, doc string) {
	s.mu.Lock()
	s.docs[name] = doc
	s.mu.Unlock()
	s.changes <- name
}

func TestEngine_WatchReloads(t *testing.T) {
	src := &watchedSource{
		docs:    map[string]string{"main": "body: [{p: v1}]"},
		changes: make(chan string, 1),
	}
	eng, err := weft.New("", weft.WithSource(src))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded, err := eng.Watch(ctx)
	require.NoError(t, err)

	turn, err := eng.Render(ctx, ports.RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "v1", turn.Prompt)

	// A broken document keeps the previous tree.
	src.set("main", "body: [")
	src.set("main", "body: [{p: v2}]")
	select {
	case name := <-reloaded:
		assert.Equal(t, "main", name)
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}

	turn, err = eng.Render(ctx, ports.RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "v2", turn.Prompt)
	assert.Equal(t, 1, turn.Step)
}

func TestEngine_WatchUnsupported(t *testing.T) {
	eng, err := weft.New("", weft.WithSource(memory.NewSource(map[string]string{"main": "body: [hi]"})))
	require.NoError(t, err)
	_, err = eng.Watch(context.Background())
	assert.Error(t, err)
}
