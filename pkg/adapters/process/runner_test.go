package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/adapters/process"
)

func skipWithoutShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
}

func TestRunner_Run(t *testing.T) {
	skipWithoutShell(t)
	runner := process.NewRunner()
	runner.Register("greet", "sh", "-c", "echo hello $WEFT_ARG_NAME")
	runner.Register("json", "sh", "-c", `echo '{"count": 2, "items": ["a"]}'`)
	runner.Register("fail", "sh", "-c", "echo broken >&2; exit 3")

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		out, err := runner.Run(context.Background(), "greet", map[string]any{"name": "ada"})
		require.NoError(t, err)
		assert.Equal(t, "hello ada", out)
	})

	t.Run("Decodes JSON Output", func(t *testing.T) {
		out, err := runner.Run(context.Background(), "json", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"count": float64(2), "items": []any{"a"}}, out)
	})

	t.Run("Reports Stderr", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "fail", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "hacker_script", nil)
		assert.ErrorIs(t, err, process.ErrNotRegistered)
	})
}

func TestRunner_Cancel(t *testing.T) {
	skipWithoutShell(t)
	runner := process.NewRunner()
	runner.Register("slow", "sleep", "5")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := runner.Run(ctx, "slow", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunner_Executors(t *testing.T) {
	skipWithoutShell(t)
	runner := process.NewRunner(process.WithRegistry(map[string]process.ProcessConfig{
		"where": {Command: "sh", Args: []string{"-c", "echo $GREETING $WEFT_ARG_TAGS"}, Environment: map[string]string{"GREETING": "hi"}},
	}))
	assert.Equal(t, []string{"where"}, runner.Names())

	executors := runner.Executors()
	require.Contains(t, executors, "process:where")
	out, err := executors["process:where"](context.Background(), map[string]any{"tags": []any{"x"}})
	require.NoError(t, err)
	assert.Equal(t, `hi ["x"]`, out)
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()

	tools, err := process.LoadTools(filepath.Join(dir, process.DefaultConfigFile))
	require.NoError(t, err)
	assert.Empty(t, tools)

	path := filepath.Join(dir, process.DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: lint
    command: golangci-lint
    args: [run]
    env: {CI: "true"}
`), 0644))
	tools, err = process.LoadTools(path)
	require.NoError(t, err)
	require.Contains(t, tools, "lint")
	assert.Equal(t, []string{"run"}, tools["lint"].Args)
	assert.Equal(t, "true", tools["lint"].Environment["CI"])

	jsonPath := filepath.Join(dir, "tools.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"tools":[{"name":"x"}]}`), 0644))
	_, err = process.LoadTools(jsonPath)
	assert.Error(t, err)
}
