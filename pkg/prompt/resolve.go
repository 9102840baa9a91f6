package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/registry"
	"github.com/aretw0/weft/pkg/state"
)

// Reference is the tree of an earlier pass used to match components and carry their state.
type Reference struct {
	Mode domain.RenderMode
	Tree Resolved
}

// Pass is the input of one resolution pass.
type Pass struct {
	Thread    domain.ThreadState
	Reference *Reference
	// Input is visible to every component through UseInput for the whole pass.
	Input any
}

// Output is the result of one resolution pass.
type Output struct {
	Tree    Resolved
	Actions *registry.Registry
	Pass    Pass

	root     Node
	resolver *Resolver
}

// Rerender resolves the same root at the next step, using this output's tree
// as the reference in next mode.
func (o *Output) Rerender(ctx context.Context) (*Output, error) {
	next := o.Pass
	next.Thread = o.Pass.Thread.Next()
	next.Reference = &Reference{Mode: domain.ModeNext, Tree: o.Tree}
	return o.resolver.Resolve(ctx, o.root, next)
}

// Resolver evaluates virtual trees into resolved trees.
type Resolver struct {
	logger *slog.Logger
	store  *state.Store
	limit  int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithStore sets the store of cross-thread hook state.
// Resolvers of the same session must share it.
func WithStore(store *state.Store) Option {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithConcurrency limits how many siblings of a list resolve at the same time.
// Zero or less means no limit.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		r.limit = n
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.store == nil {
		r.store = state.NewStore()
	}
	return r
}

// Store returns the cross-thread state store.
func (r *Resolver) Store() *state.Store { return r.store }

// Resolve evaluates root for one pass.
func (r *Resolver) Resolve(ctx context.Context, root Node, p Pass) (*Output, error) {
	if p.Thread.Thread == "" {
		p.Thread.Thread = domain.DefaultThread
	}
	rn := &run{
		thread: p.Thread,
		coord:  p.Thread.Coordinate(),
		mode:   domain.ModeNext,
		input:  p.Input,
		store:  r.store,
		limit:  r.limit,
	}
	var ref Resolved
	if p.Reference != nil {
		if p.Reference.Mode != "" {
			rn.mode = p.Reference.Mode
		}
		ref = p.Reference.Tree
	}

	start := time.Now()
	tree, err := rn.resolve(ctx, root, frame{}, ref)
	if err != nil {
		return nil, err
	}

	actions := registry.NewRegistry()
	for _, a := range Actions(tree) {
		if actions.Register(a.Action) {
			r.logger.Debug("action name registered twice, keeping the last one", "action", a.Action.Name)
		}
	}

	r.logger.Debug("tree resolved",
		"thread", p.Thread.Thread,
		"coordinate", rn.coord.String(),
		"mode", string(rn.mode),
		"actions", actions.Len(),
		"duration", time.Since(start))

	return &Output{Tree: tree, Actions: actions, Pass: p, root: root, resolver: r}, nil
}

// run holds what is fixed for a whole pass.
type run struct {
	thread domain.ThreadState
	coord  domain.Coordinate
	mode   domain.RenderMode
	input  any
	store  *state.Store
	limit  int
}

// frame holds what changes while descending the tree.
type frame struct {
	path   string   // path of the enclosing component
	pos    string   // list positions below the enclosing component
	blocks []string // action-naming segments of the enclosing named blocks
	snap   snapshot
}

func (f frame) at(i int) frame {
	f.pos += "." + strconv.Itoa(i)
	return f
}

func (rn *run) resolve(ctx context.Context, n Node, f frame, ref Resolved) (Resolved, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch v := n.(type) {
	case nil:
		return ResolvedList{}, nil
	case Text:
		return ResolvedText(v), nil
	case Int:
		return ResolvedText(strconv.FormatInt(int64(v), 10)), nil
	case Float:
		return ResolvedText(formatFloat(float64(v))), nil
	case Fragment:
		return rn.resolveList(ctx, v, f, ref)
	case Async:
		if v == nil {
			return ResolvedList{}, nil
		}
		next, err := produce(ctx, v, f.path)
		if err != nil {
			return nil, err
		}
		return rn.resolve(ctx, next, f, ref)
	case *Element:
		switch {
		case v == nil:
			return ResolvedList{}, nil
		case v.kind == kindTag:
			return rn.resolveTag(ctx, v, f, ref)
		default:
			return rn.resolveFunction(ctx, v, f, ref)
		}
	}
	return nil, fmt.Errorf("unsupported node type %T", n)
}

func (rn *run) resolveList(ctx context.Context, list Fragment, f frame, ref Resolved) (Resolved, error) {
	prev, _ := ref.(ResolvedList)
	out := make(ResolvedList, len(list))

	g, gctx := errgroup.WithContext(ctx)
	if rn.limit > 0 {
		g.SetLimit(rn.limit)
	}
	for i, child := range list {
		match := matchChild(child, prev, i)
		cf := f.at(i)
		g.Go(func() (err error) {
			defer recoverHookError(cf.path, &err)
			r, err := rn.resolve(gctx, child, cf, match)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// matchChild finds the previous sibling a child is matched against: the one
// with the same key when the child is keyed, the one at the same index otherwise.
func matchChild(child Node, prev ResolvedList, i int) Resolved {
	if e, ok := child.(*Element); ok && e != nil && !e.key.IsZero() {
		for _, p := range prev {
			if k, ok := keyOf(p); ok && k == e.key {
				return p
			}
		}
		return nil
	}
	if i < len(prev) {
		return prev[i]
	}
	return nil
}

func (rn *run) resolveFunction(ctx context.Context, e *Element, f frame, ref Resolved) (Resolved, error) {
	prev, ok := ref.(*FunctionNode)
	if !ok || prev.Identity != e.identity || prev.Key != e.key {
		prev = nil
	}

	var st *state.ComponentState
	if prev != nil {
		st = prev.State.Derive(rn.coord, rn.mode)
	} else {
		st = state.New(rn.coord)
	}

	segment := e.identity
	if e.key.IsZero() {
		segment += f.pos
	} else {
		segment += "#" + e.key.String()
	}
	child := frame{path: f.path + "/" + segment, blocks: f.blocks, snap: f.snap}

	var out Node
	if e.kind == kindProvider {
		child.snap = f.snap.with(e.provides, e.value)
		out = e.children
	} else {
		var err error
		if out, err = rn.invoke(ctx, e, child, st, prev != nil); err != nil {
			return nil, err
		}
	}

	var prevChildren Resolved
	if prev != nil {
		prevChildren = prev.Children
	}
	children, err := rn.resolve(ctx, out, child, prevChildren)
	if err != nil {
		return nil, err
	}
	return &FunctionNode{
		Identity: e.identity,
		Key:      e.key,
		Path:     child.path,
		Children: children,
		State:    st,
	}, nil
}

// invoke runs a component function. Hooks report misuse by panicking with a
// domain error, which is returned here.
func (rn *run) invoke(ctx context.Context, e *Element, f frame, st *state.ComponentState, matched bool) (out Node, err error) {
	sc := &Scope{ctx: ctx, run: rn, path: f.path, state: st, matched: matched, snap: f.snap}
	if matched {
		sc.previous = len(st.Slots)
	}
	sc.active.Store(true)

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		sc.active.Store(false)
		herr, ok := rec.(error)
		if !ok || !isHookError(herr) {
			panic(rec)
		}
		out, err = nil, fmt.Errorf("render %s: %w", f.path, herr)
	}()

	out = e.render(sc)
	if ferr := sc.finish(); ferr != nil {
		return nil, fmt.Errorf("render %s: %w", f.path, ferr)
	}
	return out, nil
}

// produce calls an async producer. Hook misuse inside it is returned as an error.
func produce(ctx context.Context, fn Async, path string) (next Node, err error) {
	defer recoverHookError(path, &err)
	return fn(ctx)
}

// recoverHookError turns a hook panic into *err. Other panics propagate.
func recoverHookError(path string, err *error) {
	rec := recover()
	if rec == nil {
		return
	}
	herr, ok := rec.(error)
	if !ok || !isHookError(herr) {
		panic(rec)
	}
	*err = fmt.Errorf("render %s: %w", path, herr)
}

// formatFloat prints numbers like the prompt text of a JavaScript host:
// exponent notation from 1e21 up and below 1e-6.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isHookError(err error) bool {
	return errors.Is(err, domain.ErrOutsideRender) ||
		errors.Is(err, domain.ErrHookOrder) ||
		errors.Is(err, domain.ErrOutsideAction)
}

func (rn *run) resolveTag(ctx context.Context, e *Element, f frame, ref Resolved) (Resolved, error) {
	prev, ok := ref.(*TagNode)
	if !ok || prev.Tag.TagName() != e.tag.TagName() || prev.Key != e.key {
		prev = nil
	}

	switch t := e.tag.(type) {
	case ActionTag:
		action := t.Action
		action.Name = actionName(f.blocks, action.Name)
		return &TagNode{Tag: ActionTag{Action: action, Inline: t.Inline}, Key: e.key, Children: ResolvedList{}}, nil
	case BlockTag:
		f.blocks = append(slices.Clip(f.blocks), blockSegment(t.Name, t.ID))
	}

	var prevChildren Resolved
	if prev != nil {
		prevChildren = prev.Children
	}
	children, err := rn.resolve(ctx, e.children, f, prevChildren)
	if err != nil {
		return nil, err
	}
	return &TagNode{Tag: e.tag, Key: e.key, Children: children}, nil
}
