package document

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/prompt"
	"github.com/aretw0/weft/pkg/registry"
)

// Built-in executor names.
const (
	ExecutorTerminate      = "terminate"
	ExecutorRedirectPrefix = "redirect:"
)

// Library compiles the documents of a source, binding actions to named executors
// and sharing named contexts between documents.
type Library struct {
	source ports.DocumentSource
	logger *slog.Logger

	mu        sync.RWMutex
	executors map[string]domain.Executor
	contexts  map[string]*prompt.Context[any]
}

// Option configures a Library.
type Option func(*Library)

// WithExecutor registers an executor under name.
func WithExecutor(name string, fn domain.Executor) Option {
	return func(l *Library) {
		l.executors[name] = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// NewLibrary creates a library reading documents from source.
func NewLibrary(source ports.DocumentSource, opts ...Option) *Library {
	l := &Library{
		source:    source,
		logger:    logging.NewNop(),
		executors: make(map[string]domain.Executor),
		contexts:  make(map[string]*prompt.Context[any]),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register adds or replaces an executor.
func (l *Library) Register(name string, fn domain.Executor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.executors[name] = fn
}

// Context returns the context shared by every document under name.
func (l *Library) Context(name string) *prompt.Context[any] {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.contexts[name]
	if !ok {
		c = prompt.NewContext[any](name, nil)
		l.contexts[name] = c
	}
	return c
}

// Names lists the documents of the source.
func (l *Library) Names(ctx context.Context) ([]string, error) {
	return l.source.List(ctx)
}

// Load reads and decodes a document.
func (l *Library) Load(ctx context.Context, name string) (*Document, error) {
	data, err := l.source.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", name, err)
	}
	return doc, nil
}

// Compile loads a document and compiles it, with its includes, into a component.
func (l *Library) Compile(ctx context.Context, name string) (*prompt.Element, error) {
	return l.compile(ctx, name, nil)
}

// CompileDocument compiles an already decoded document. Includes are read from the source.
func (l *Library) CompileDocument(ctx context.Context, name string, doc *Document) (*prompt.Element, error) {
	return l.build(ctx, name, doc, []string{name})
}

func (l *Library) compile(ctx context.Context, name string, stack []string) (*prompt.Element, error) {
	if slices.Contains(stack, name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIncludeCycle, strings.Join(append(slices.Clip(stack), name), " -> "))
	}
	doc, err := l.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return l.build(ctx, name, doc, append(slices.Clip(stack), name))
}

func (l *Library) build(ctx context.Context, name string, doc *Document, stack []string) (*prompt.Element, error) {
	c := &compiler{lib: l, ctx: ctx, stack: stack}

	var body prompt.Fragment
	if doc.System != nil {
		children, err := c.children("system", doc.System)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", name, err)
		}
		body = append(body, prompt.System(children...))
	}
	if doc.Body != nil {
		children, err := c.children("body", doc.Body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", name, err)
		}
		body = append(body, children...)
	}
	if content := strings.TrimSpace(doc.Content); content != "" {
		body = append(body, prompt.P(prompt.Text(content)))
	}
	for _, spec := range doc.Actions {
		el, err := l.action(spec)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", name, err)
		}
		body = append(body, el)
	}

	l.logger.Debug("document compiled", "document", name, "nodes", len(body), "actions", len(doc.Actions))
	return prompt.Func("doc:"+name, func(*prompt.Scope) prompt.Node {
		return body
	}), nil
}

// action builds the element declaring spec.
func (l *Library) action(spec ActionSpec) (*prompt.Element, error) {
	params, err := spec.Schema()
	if err != nil {
		return nil, err
	}
	exec, err := l.executor(spec.Executor)
	if err != nil {
		return nil, fmt.Errorf("action %s: %w", spec.Name, err)
	}
	desc := domain.ActionDescriptor{
		Name:         spec.Name,
		Description:  spec.Description,
		Parameters:   params,
		Execute:      exec,
		RenderInline: spec.Inline,
	}
	if spec.Inline {
		return prompt.InlineAction(desc), nil
	}
	return prompt.Action(desc), nil
}

func (l *Library) executor(name string) (domain.Executor, error) {
	switch {
	case name == "":
		return nil, nil
	case name == ExecutorTerminate:
		return func(ctx context.Context, args map[string]any) (any, error) {
			return nil, registry.Terminate(ctx, args)
		}, nil
	case strings.HasPrefix(name, ExecutorRedirectPrefix):
		thread := strings.TrimPrefix(name, ExecutorRedirectPrefix)
		if thread == "" {
			return nil, fmt.Errorf("%w: %q needs a thread", domain.ErrUnknownExecutor, name)
		}
		return func(ctx context.Context, args map[string]any) (any, error) {
			return nil, registry.Redirect(ctx, thread)
		}, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownExecutor, name)
	}
	return fn, nil
}
