package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
)

// ExecutorPrefix prefixes the executor names of registered processes,
// so a document binds an action with `executor: process:<name>`.
const ExecutorPrefix = "process:"

// ArgEnvPrefix prefixes the environment variables carrying action arguments.
const ArgEnvPrefix = "WEFT_ARG_"

// ErrNotRegistered is returned for processes outside the allow-list.
var ErrNotRegistered = errors.New("process not registered")

// Runner executes allow-listed local processes as action executors.
// Arguments are passed as environment variables, never as command flags.
type Runner struct {
	registry map[string]ProcessConfig
	baseDir  string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ProcessConfig),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ProcessConfig{Name: name, Command: command, Args: args}
}

// Names returns the registered process names, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Executors returns one executor per registered process, keyed by
// ExecutorPrefix plus the process name.
func (r *Runner) Executors() map[string]domain.Executor {
	out := make(map[string]domain.Executor, len(r.registry))
	for name := range r.registry {
		out[ExecutorPrefix+name] = r.Executor(name)
	}
	return out
}

// Executor binds the process name to the executor signature of actions.
func (r *Runner) Executor(name string) domain.Executor {
	return func(ctx context.Context, args map[string]any) (any, error) {
		return r.Run(ctx, name, args)
	}
}

// Run executes the process registered as name. Stdout holding a JSON object or
// array is decoded; other output is returned as a trimmed string.
func (r *Runner) Run(ctx context.Context, name string, args map[string]any) (any, error) {
	proc, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(proc.Environment, args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("process %s: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("process %s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return decodeOutput(stdout.String()), nil
}

// environment renders the static variables followed by one variable per argument.
func environment(static map[string]string, args map[string]any) []string {
	env := make([]string, 0, len(static)+len(args))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
		default:
			if raw, err := json.Marshal(v); err == nil {
				val = string(raw)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, ArgEnvPrefix+strings.ToUpper(k)+"="+val)
	}
	sort.Strings(env)
	return env
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
