package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/presentation/tui"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
)

const desk = `
body:
  - p: Help desk
  - input: "Question: %v"
actions:
  - name: lookup
    description: Look up an article
    executor: kb.lookup
    parameters:
      topic: string
  - name: escalate
    description: Hand over to a human
    executor: "redirect:human"
  - name: close
    description: Close the ticket
    executor: terminate
`

func newSession(t *testing.T) *weft.Engine {
	t.Helper()
	eng, err := weft.New("",
		weft.WithSource(memory.NewSource(map[string]string{"main": desk})),
		weft.WithExecutor("kb.lookup", func(ctx context.Context, args map[string]any) (any, error) {
			return "article about " + args["topic"].(string), nil
		}),
	)
	require.NoError(t, err)
	return eng
}

func run(t *testing.T, eng *weft.Engine, opts Options, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	require.NoError(t, RunSession(context.Background(), eng, opts, in, tui.NewPlainPrinter(&out)))
	return out.String()
}

func TestRunSession_Conversation(t *testing.T) {
	eng := newSession(t)
	out := run(t, eng, Options{},
		"how do I reset my password?",
		"/actions",
		`/call lookup {"topic": "passwords"}`,
		"/call close",
		"never read",
	)

	assert.Equal(t, strings.Join([]string{
		"Help desk",
		"Help desk\n\nQuestion: how do I reset my password?",
		"lookup: Look up an article",
		"escalate: Hand over to a human",
		"close: Close the ticket",
		"lookup -> article about passwords",
		"Help desk",
		"terminated: map[]",
		"",
	}, "\n"), out)

	turns := eng.Manager().Turns(domain.DefaultThread)
	require.Len(t, turns, 3)
	assert.Equal(t, domain.Coordinate{Step: 1, ToolCall: 1}, turns[2].State.Coordinate())
}

func TestRunSession_RedirectAndThreads(t *testing.T) {
	eng := newSession(t)
	out := run(t, eng, Options{Thread: "support"},
		"/call escalate",
		"/thread",
		"/rerender x",
		"/rerender",
		"/call missing",
		"/quit",
	)

	assert.Contains(t, out, "moved to thread human")
	assert.Contains(t, out, "error: usage: /thread <name>")
	assert.Contains(t, out, `error: invalid start "x"`)
	assert.Contains(t, out, "error: ")
	assert.ElementsMatch(t, []string{"support", "human"}, eng.Manager().Threads())
	assert.Len(t, eng.Manager().Turns("human"), 2)
}

func TestRunSession_JSON(t *testing.T) {
	eng := newSession(t)
	out := run(t, eng, Options{JSON: true}, "/call close")

	dec := json.NewDecoder(strings.NewReader(out))
	var turn struct {
		Thread string `json:"thread"`
		Prompt string `json:"prompt"`
	}
	require.NoError(t, dec.Decode(&turn))
	assert.Equal(t, "main", turn.Thread)
	assert.Equal(t, "Help desk", turn.Prompt)

	var res domain.ActionResult
	require.NoError(t, dec.Decode(&res))
	assert.Equal(t, domain.OutcomeTerminate, res.State.Outcome)
}

func TestRunSession_InvalidArguments(t *testing.T) {
	eng := newSession(t)
	out := run(t, eng, Options{}, "/call lookup {", "/call lookup {}")
	assert.Contains(t, out, "error: invalid arguments")
	assert.Equal(t, 2, strings.Count(out, "error: "))
}
