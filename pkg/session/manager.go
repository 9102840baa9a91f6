package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/prompt"
	"github.com/aretw0/weft/pkg/serializer"
)

// lockTTL bounds how long a crashed replica can hold a thread.
const lockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager renders threads of one application tree and keeps their history.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	root       prompt.Node
	resolver   *prompt.Resolver
	serializer *serializer.Serializer
	store      ports.TranscriptStore // Optional transcript persistence
	locker     ports.DistributedLocker
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex            // Global lock for the maps
	locks   map[string]*lockEntry // Map of active locks
	threads map[string]*thread
}

// Option configures the Manager.
type Option func(*Manager)

// WithResolver sets the resolver. Its state store is shared by every thread.
func WithResolver(r *prompt.Resolver) Option {
	return func(m *Manager) {
		m.resolver = r
	}
}

// WithSerializer sets the serializer used to produce turn text.
func WithSerializer(s *serializer.Serializer) Option {
	return func(m *Manager) {
		m.serializer = s
	}
}

// WithStore persists transcripts after every render.
func WithStore(store ports.TranscriptStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithHooks registers lifecycle callbacks. Calling it twice chains the hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source of turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager rendering root.
func NewManager(root prompt.Node, opts ...Option) *Manager {
	m := &Manager{
		root:    root,
		locks:   make(map[string]*lockEntry),
		threads: make(map[string]*thread),
		logger:  logging.NewNop(), // Default to no-op
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.resolver == nil {
		m.resolver = prompt.NewResolver(prompt.WithLogger(m.logger))
	}
	if m.serializer == nil {
		m.serializer = serializer.New()
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(name) after unlocking.
func (m *Manager) acquire(name string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, name)
	}
}

// WithLock executes a function while holding the lock for the thread.
func (m *Manager) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := m.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(name)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, name, lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"thread", name,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) thread(name string, create bool) *thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	th, ok := m.threads[name]
	if !ok && create {
		th = &thread{name: name}
		m.threads[name] = th
	}
	return th
}

// Render renders a thread according to strategy and returns the turn of its next step.
func (m *Manager) Render(ctx context.Context, name string, strategy Strategy, input any) (*Turn, error) {
	if name == "" {
		name = domain.DefaultThread
	}
	var turn *Turn
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		th := m.thread(name, true)
		next := th.next()
		start := strategy.first(next)

		turns := th.before(start)
		for step := start; step <= next; step++ {
			ref := &prompt.Reference{Mode: domain.ModeNext}
			if stored := th.at(step); stored != nil && step < next {
				ref = &prompt.Reference{Mode: domain.ModeCached, Tree: stored.Output.Tree}
			} else if len(turns) > 0 {
				ref.Tree = turns[len(turns)-1].Output.Tree
			}

			t, err := m.render(ctx, domain.ThreadState{Thread: name, Step: step}, ref, input)
			if err != nil {
				return err
			}
			turns = append(turns, t)
		}

		m.mu.Lock()
		th.turns = turns
		turn = th.latest()
		m.mu.Unlock()
		return m.persist(ctx, th)
	})
	return turn, err
}

// Continue renders the next tool-call sub-step of the latest step of a thread,
// typically after an action was executed.
func (m *Manager) Continue(ctx context.Context, name string, input any) (*Turn, error) {
	var turn *Turn
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		th := m.thread(name, false)
		if th == nil || th.latest() == nil {
			return fmt.Errorf("%w: %s", domain.ErrThreadNotFound, name)
		}
		latest := th.latest()
		ts := latest.State
		ts.ToolCall++

		t, err := m.render(ctx, ts, &prompt.Reference{Mode: domain.ModeNext, Tree: latest.Output.Tree}, input)
		if err != nil {
			return err
		}
		m.mu.Lock()
		th.turns = append(th.turns, t)
		m.mu.Unlock()
		turn = t
		return m.persist(ctx, th)
	})
	return turn, err
}

// Execute runs an action declared by the latest turn of a thread.
func (m *Manager) Execute(ctx context.Context, name, action string, args map[string]any) (domain.ActionResult, error) {
	var result domain.ActionResult
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		th := m.thread(name, false)
		if th == nil || th.latest() == nil {
			return fmt.Errorf("%w: %s", domain.ErrThreadNotFound, name)
		}

		start := m.now()
		res, err := th.latest().Output.Actions.Execute(ctx, action, args)
		if m.hooks.OnAction != nil {
			m.hooks.OnAction(ctx, &domain.ActionEvent{
				EventBase: domain.EventBase{Timestamp: m.now(), Type: domain.EventAction, Thread: name},
				Action:    action,
				Outcome:   res.State.Outcome,
				Duration:  m.now().Sub(start),
				Err:       err,
			})
		}
		if err != nil {
			return err
		}
		m.logger.Debug("action executed", "thread", name, "action", action, "outcome", string(res.State.Outcome))
		result = res
		return nil
	})
	return result, err
}

// Latest returns the latest turn of a thread.
func (m *Manager) Latest(name string) (*Turn, error) {
	th := m.thread(name, false)
	if th == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrThreadNotFound, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t := th.latest(); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrThreadNotFound, name)
}

// Turns returns the turns of a thread in order.
func (m *Manager) Turns(name string) []*Turn {
	th := m.thread(name, false)
	if th == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Turn(nil), th.turns...)
}

// Threads returns the names of the threads rendered by this manager, sorted.
func (m *Manager) Threads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.threads))
	for name := range m.threads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transcript returns the transcript of a thread, from the store when one is configured.
func (m *Manager) Transcript(ctx context.Context, name string) (*domain.Transcript, error) {
	if m.store != nil {
		return m.store.Load(ctx, name)
	}
	th := m.thread(name, false)
	if th == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTranscriptNotFound, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return th.transcript(), nil
}

// Delete forgets a thread and removes its transcript.
// Cross-thread hook state is kept.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.threads, name)
		m.mu.Unlock()
		if m.store == nil {
			return nil
		}
		return m.store.Delete(ctx, name)
	})
}

// Store returns the transcript store, if any.
func (m *Manager) Store() ports.TranscriptStore {
	return m.store
}

func (m *Manager) render(ctx context.Context, ts domain.ThreadState, ref *prompt.Reference, input any) (*Turn, error) {
	start := m.now()
	out, err := m.resolver.Resolve(ctx, m.root, prompt.Pass{Thread: ts, Reference: ref, Input: input})

	var text serializer.Output
	if err == nil {
		text, err = m.serializer.Stringify(out.Tree)
	}

	if m.hooks.OnRender != nil {
		evt := &domain.RenderEvent{
			EventBase:  domain.EventBase{Timestamp: m.now(), Type: domain.EventRender, Thread: ts.Thread},
			Coordinate: ts.Coordinate(),
			Mode:       ref.Mode,
			Duration:   m.now().Sub(start),
			Err:        err,
		}
		if err == nil {
			evt.Actions = out.Actions.Len()
		}
		m.hooks.OnRender(ctx, evt)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s at %s: %w", ts.Thread, ts.Coordinate(), err)
	}

	m.logger.Debug("turn rendered",
		"thread", ts.Thread,
		"coordinate", ts.Coordinate().String(),
		"mode", string(ref.Mode),
		"actions", out.Actions.Len())

	return &Turn{
		ID:        ulid.Make().String(),
		State:     ts,
		Output:    out,
		Text:      text,
		CreatedAt: m.now(),
	}, nil
}

func (m *Manager) persist(ctx context.Context, th *thread) error {
	if m.store == nil {
		return nil
	}
	m.mu.Lock()
	tr := th.transcript()
	m.mu.Unlock()
	if err := m.store.Save(ctx, tr); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}
