package weft

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/aretw0/weft/internal/logging"
	loamAdapter "github.com/aretw0/weft/pkg/adapters/loam"
	"github.com/aretw0/weft/pkg/document"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/observability"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/prompt"
	"github.com/aretw0/weft/pkg/serializer"
	"github.com/aretw0/weft/pkg/session"
)

// DefaultEntry is the document rendered when no entry is configured.
const DefaultEntry = "main"

// Engine is the high-level entry point of the library.
// It compiles the entry document of a source and renders it per thread.
type Engine struct {
	*session.Engine
	Name string

	source    ports.DocumentSource
	library   *document.Library
	entry     string
	root      atomic.Pointer[prompt.Element]
	store     ports.TranscriptStore
	locker    ports.DistributedLocker
	hooks     domain.LifecycleHooks
	metrics   *observability.Metrics
	executors map[string]domain.Executor
	gap       int
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource injects a custom DocumentSource, bypassing the default Loam initialization.
func WithSource(source ports.DocumentSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithEntry sets the document rendered as the application (default "main").
func WithEntry(name string) Option {
	return func(e *Engine) {
		e.entry = name
	}
}

// WithStore persists a transcript of every thread.
func WithStore(store ports.TranscriptStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes renders of a thread across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMetrics records renders and actions into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithExecutor binds document actions declaring executor name to fn.
func WithExecutor(name string, fn domain.Executor) Option {
	return func(e *Engine) {
		e.executors[name] = fn
	}
}

// WithGap sets the number of newlines between blocks (default 2).
func WithGap(gap int) Option {
	return func(e *Engine) {
		e.gap = gap
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a new Engine.
// By default, it reads prompt documents from a Loam repository at the given path.
// If WithSource is provided, path can be empty and Loam is skipped.
func New(path string, opts ...Option) (*Engine, error) {
	e := &Engine{
		entry:     DefaultEntry,
		executors: make(map[string]domain.Executor),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.source == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom source is provided")
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		e.Name = filepath.Base(absPath)

		source, err := loamAdapter.Open(absPath)
		if err != nil {
			return nil, err
		}
		e.source = source
	} else if path != "" {
		e.Name = filepath.Base(path)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.Name != "" {
		e.logger = e.logger.With("app", e.Name)
	}

	libOpts := []document.Option{document.WithLogger(e.logger)}
	for name, fn := range e.executors {
		libOpts = append(libOpts, document.WithExecutor(name, fn))
	}
	e.library = document.NewLibrary(e.source, libOpts...)

	if err := e.Reload(context.Background()); err != nil {
		return nil, err
	}

	hooks := observability.LogHooks(e.logger)
	if e.metrics != nil {
		hooks = hooks.Merge(e.metrics.Hooks())
	}
	hooks = hooks.Merge(e.hooks)

	var serOpts []serializer.Option
	if e.gap > 0 {
		serOpts = append(serOpts, serializer.WithGap(e.gap))
	}

	sessionOpts := []session.Option{
		session.WithSerializer(serializer.New(serOpts...)),
		session.WithHooks(hooks),
		session.WithLogger(e.logger),
	}
	if e.store != nil {
		sessionOpts = append(sessionOpts, session.WithStore(e.store))
	}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}

	// The application component reads the compiled entry on every render,
	// so a reload keeps the hook state of unchanged components.
	app := prompt.Func("App", func(*prompt.Scope) prompt.Node {
		return e.root.Load()
	})
	e.Engine = session.NewEngine(session.NewManager(app, sessionOpts...))
	return e, nil
}

// Reload recompiles the entry document. Renders in flight keep the previous tree.
func (e *Engine) Reload(ctx context.Context) error {
	root, err := e.library.Compile(ctx, e.entry)
	if err != nil {
		return fmt.Errorf("compile %s: %w", e.entry, err)
	}
	e.root.Store(root)
	e.logger.Debug("entry compiled", "entry", e.entry)
	return nil
}

// Watch reloads the entry whenever a document of the source changes.
// The returned channel emits the name of each document that triggered a successful reload.
// Returns error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.source.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("current source does not support watching")
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for name := range changes {
			if err := e.Reload(ctx); err != nil {
				e.logger.Warn("reload failed", "document", name, "err", err)
				continue
			}
			e.logger.Info("reloaded", "document", name)
			select {
			case out <- name:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Entry returns the name of the rendered document.
func (e *Engine) Entry() string { return e.entry }

// Library returns the document library.
func (e *Engine) Library() *document.Library { return e.library }

// Source returns the document source.
func (e *Engine) Source() ports.DocumentSource { return e.source }

// Metrics returns the metrics passed with WithMetrics, or nil.
func (e *Engine) Metrics() *observability.Metrics { return e.metrics }
