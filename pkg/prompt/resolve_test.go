package prompt_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/prompt"
	"github.com/aretw0/weft/pkg/serializer"
	"github.com/aretw0/weft/pkg/state"
)

func resolve(t *testing.T, r *prompt.Resolver, root prompt.Node, pass prompt.Pass) *prompt.Output {
	t.Helper()
	out, err := r.Resolve(context.Background(), root, pass)
	require.NoError(t, err)
	return out
}

func first() prompt.Pass {
	return prompt.Pass{Thread: domain.NewThreadState("main")}
}

func promptText(t *testing.T, out *prompt.Output) string {
	t.Helper()
	s, err := serializer.Stringify(out.Tree)
	require.NoError(t, err)
	return s.Prompt
}

func rerender(t *testing.T, out *prompt.Output) *prompt.Output {
	t.Helper()
	next, err := out.Rerender(context.Background())
	require.NoError(t, err)
	return next
}

var noop = prompt.Define("Noop", func(s *prompt.Scope, children prompt.Node) prompt.Node {
	return prompt.Div(0, children)
})

func TestResolve_CachesState(t *testing.T) {
	var sig prompt.Signal[string]
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		sig = prompt.UseSignal(s, "hello")
		return prompt.Text(sig.Get())
	})

	out1 := resolve(t, prompt.NewResolver(), App, first())
	fn := out1.Tree.(*prompt.FunctionNode)
	require.Len(t, fn.State.Slots, 1)
	cached, ok := fn.State.Cache.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, "hello", cached)

	sig.Set("world")
	// reads stay frozen for the coordinate they were made at
	assert.Equal(t, "hello", sig.Get())
	assert.Equal(t, "world", sig.Latest())

	out2 := rerender(t, out1)
	assert.Equal(t, 1, out2.Pass.Thread.Step)
	assert.Equal(t, "world", promptText(t, out2))
}

func TestResolve_StateDeepInTree(t *testing.T) {
	var set func(string)
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		v, setter := prompt.UseState(s, "hello")
		set = setter
		return prompt.Text(v)
	})
	root := noop.New(noop.New(prompt.Fragment{App}))

	out1 := resolve(t, prompt.NewResolver(), root, first())
	assert.Equal(t, "hello", promptText(t, out1))

	set("world")
	assert.Equal(t, "world", promptText(t, rerender(t, out1)))
}

func switcher(key any) (prompt.Node, *func(string), *func(bool)) {
	var setValue func(string)
	var setSwitched func(bool)

	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		v, set := prompt.UseState(s, "hello")
		setValue = set
		return prompt.Text(v)
	})
	if key != nil {
		App = App.WithKey(key)
	}
	Switcher := prompt.Func("Switcher", func(s *prompt.Scope) prompt.Node {
		switched, set := prompt.UseState(s, false)
		setSwitched = set
		if switched {
			return prompt.Fragment{prompt.Div(0), App}
		}
		return prompt.Fragment{App, prompt.Div(0)}
	})
	return noop.New(Switcher), &setValue, &setSwitched
}

func TestResolve_DisplacedWithoutKeyResets(t *testing.T) {
	root, setValue, setSwitched := switcher(nil)
	out1 := resolve(t, prompt.NewResolver(), root, first())
	assert.Equal(t, "hello", promptText(t, out1))

	(*setValue)("world")
	(*setSwitched)(true)
	assert.Equal(t, "hello", promptText(t, rerender(t, out1)))
}

func TestResolve_DisplacedWithKeyPreserves(t *testing.T) {
	root, setValue, setSwitched := switcher("test")
	out1 := resolve(t, prompt.NewResolver(), root, first())
	assert.Equal(t, "hello", promptText(t, out1))

	(*setValue)("world")
	(*setSwitched)(true)
	assert.Equal(t, "world", promptText(t, rerender(t, out1)))
}

func TestResolve_HookOrderChanged(t *testing.T) {
	render := 0
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		render++
		if render%2 == 1 {
			prompt.UseSignal(s, 0)
		} else {
			prompt.UseMemo(s, func() int { return 1 })
		}
		return nil
	})

	out1 := resolve(t, prompt.NewResolver(), App, first())
	_, err := out1.Rerender(context.Background())
	require.ErrorIs(t, err, domain.ErrHookOrder)

	var hookErr *domain.HookOrderError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "signal", hookErr.Want)
	assert.Equal(t, "memo", hookErr.Got)
	assert.Equal(t, "/App", hookErr.Component)
}

func TestResolve_HookCountChanged(t *testing.T) {
	count := 2
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		for i := 0; i < count; i++ {
			prompt.UseSignal(s, i)
		}
		return nil
	})

	out1 := resolve(t, prompt.NewResolver(), App, first())

	count = 1
	_, err := out1.Rerender(context.Background())
	assert.ErrorIs(t, err, domain.ErrHookOrder)

	count = 3
	_, err = out1.Rerender(context.Background())
	assert.ErrorIs(t, err, domain.ErrHookOrder)
}

func TestResolve_HookOutsideRender(t *testing.T) {
	var leaked *prompt.Scope
	Leaker := prompt.Func("Leaker", func(s *prompt.Scope) prompt.Node {
		leaked = s
		return nil
	})
	User := prompt.Func("User", func(s *prompt.Scope) prompt.Node {
		prompt.UseSignal(leaked, 1)
		return nil
	})

	_, err := prompt.NewResolver().Resolve(context.Background(), prompt.Fragment{Leaker}, first())
	require.NoError(t, err)

	_, err = prompt.NewResolver().Resolve(context.Background(), User, first())
	assert.ErrorIs(t, err, domain.ErrOutsideRender)

	assert.PanicsWithValue(t, domain.ErrOutsideRender, func() {
		prompt.UseSignal(leaked, 1)
	})
}

func TestResolve_Idempotent(t *testing.T) {
	Item := prompt.Define("Item", func(s *prompt.Scope, n int) prompt.Node {
		count := prompt.UseSignal(s, n)
		return prompt.Li(prompt.Int(count.Get()))
	})
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		return prompt.BlockID("tools", "calc",
			prompt.Ul(Item.Keyed("a", 1), Item.Keyed("b", 2)),
			prompt.Action(domain.ActionDescriptor{Name: "add", Description: "Add numbers"}),
		)
	})

	r := prompt.NewResolver()
	base := resolve(t, r, App, first())
	pass := prompt.Pass{
		Thread:    domain.ThreadState{Thread: "main", Step: 1},
		Reference: &prompt.Reference{Mode: domain.ModeCached, Tree: base.Tree},
	}
	a := resolve(t, r, App, pass)
	b := resolve(t, r, App, pass)

	opts := cmp.Options{
		cmpopts.IgnoreFields(prompt.FunctionNode{}, "State"),
		cmp.AllowUnexported(prompt.Key{}),
		cmpopts.IgnoreFields(domain.ActionDescriptor{}, "Execute"),
	}
	if diff := cmp.Diff(a.Tree, b.Tree, opts...); diff != "" {
		t.Errorf("trees differ (-a +b):\n%s", diff)
	}
	assert.Equal(t, a.Actions.Names(), b.Actions.Names())
	assert.Equal(t, promptText(t, a), promptText(t, b))
}

func TestResolve_CachedModeReplaysCoordinate(t *testing.T) {
	var sig prompt.Signal[int]
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		sig = prompt.UseSignal(s, 1)
		return prompt.Int(sig.Get())
	})
	r := prompt.NewResolver()
	out := resolve(t, r, App, first())
	sig.Set(2)

	replay := resolve(t, r, App, prompt.Pass{
		Thread:    out.Pass.Thread,
		Reference: &prompt.Reference{Mode: domain.ModeCached, Tree: out.Tree},
	})
	assert.Equal(t, "1", promptText(t, replay))

	// a cached reference does not freeze reads of another coordinate
	next := resolve(t, r, App, prompt.Pass{
		Thread:    out.Pass.Thread.Next(),
		Reference: &prompt.Reference{Mode: domain.ModeCached, Tree: out.Tree},
	})
	assert.Equal(t, "2", promptText(t, next))
}

func TestResolve_UseMemo(t *testing.T) {
	calls := 0
	dep := "a"
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		v := prompt.UseMemo(s, func() int { calls++; return calls }, dep)
		return prompt.Int(v)
	})

	out := resolve(t, prompt.NewResolver(), App, first())
	out = rerender(t, out)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "1", promptText(t, out))

	dep = "b"
	out = rerender(t, out)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "2", promptText(t, out))
}

func TestResolve_UseCacheAndComputed(t *testing.T) {
	inits := 0
	value := "first"
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		c := prompt.UseComputed(s, func() int { inits++; return 7 })
		return prompt.Fragment{prompt.Int(c), prompt.Text(prompt.UseCache(s, value))}
	})

	r := prompt.NewResolver()
	out := resolve(t, r, App, first())
	assert.Equal(t, "7first", promptText(t, out))

	value = "second"
	replay := resolve(t, r, App, prompt.Pass{
		Thread:    out.Pass.Thread,
		Reference: &prompt.Reference{Mode: domain.ModeCached, Tree: out.Tree},
	})
	assert.Equal(t, "7first", promptText(t, replay))
	assert.Equal(t, "7second", promptText(t, rerender(t, out)))
	assert.Equal(t, 1, inits)
}

func TestResolve_ContextScoping(t *testing.T) {
	Lang := prompt.NewContext("lang", "en")
	Show := prompt.Func("Show", func(s *prompt.Scope) prompt.Node {
		return prompt.Text(prompt.UseContext(s, Lang))
	})
	root := prompt.Fragment{
		Show,
		prompt.Text(","),
		Lang.Provide("fr", Show, prompt.Text(","), Lang.Provide("de", Show)),
		prompt.Text(","),
		Show,
	}

	out := resolve(t, prompt.NewResolver(), root, first())
	assert.Equal(t, "en,fr,de,en", promptText(t, out))

	provider := out.Tree.(prompt.ResolvedList)[2].(*prompt.FunctionNode)
	assert.Equal(t, "context:lang", provider.Identity)
}

func TestResolve_InputAndThread(t *testing.T) {
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		in, ok := prompt.UseInput[string](s)
		if !ok {
			in = "none"
		}
		return prompt.Textf("%s@%s", in, prompt.UseThread(s))
	})

	out := resolve(t, prompt.NewResolver(), App, prompt.Pass{
		Thread: domain.NewThreadState("support"),
		Input:  "hi",
	})
	assert.Equal(t, "hi@support", promptText(t, out))

	out = resolve(t, prompt.NewResolver(), App, prompt.Pass{})
	assert.Equal(t, "none@main", promptText(t, out))
}

func TestResolve_ActionNamingAndCollisions(t *testing.T) {
	earlier := domain.ActionDescriptor{Name: "lookup", Description: "first"}
	last := domain.ActionDescriptor{Name: "lookup", Description: "last"}
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		return prompt.Fragment{
			prompt.BlockID("user", "Profile", prompt.Block("section", prompt.Action(earlier))),
			prompt.BlockID("user", "profile", prompt.Action(last)),
			prompt.Action(domain.ActionDescriptor{Name: "Send Mail"}),
		}
	})

	out := resolve(t, prompt.NewResolver(), App, prompt.Pass{})
	assert.Equal(t, []string{"Send_Mail", "profile_lookup"}, out.Actions.Names())

	got, ok := out.Actions.Get("profile_lookup")
	require.True(t, ok)
	assert.Equal(t, "last", got.Description)
}

func TestResolve_AsyncSiblingsRunConcurrently(t *testing.T) {
	var running atomic.Int32
	release := make(chan struct{})
	slow := func(text string) prompt.Async {
		return func(ctx context.Context) (prompt.Node, error) {
			if running.Add(1) == 2 {
				close(release)
			}
			select {
			case <-release:
			case <-time.After(5 * time.Second):
				return nil, errors.New("siblings did not run concurrently")
			}
			return prompt.Text(text), nil
		}
	}

	root := prompt.Fragment{slow("a"), slow("b")}
	out := resolve(t, prompt.NewResolver(), root, first())
	assert.Equal(t, "ab", promptText(t, out))
}

func TestResolve_AsyncError(t *testing.T) {
	boom := errors.New("boom")
	root := prompt.Fragment{
		prompt.Text("ok"),
		prompt.Async(func(ctx context.Context) (prompt.Node, error) { return nil, boom }),
	}
	_, err := prompt.NewResolver().Resolve(context.Background(), root, first())
	assert.ErrorIs(t, err, boom)
}

func TestResolve_HookInsideAsync(t *testing.T) {
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		return prompt.Fragment{
			prompt.Text("a"),
			prompt.Async(func(ctx context.Context) (prompt.Node, error) {
				sig := prompt.UseSignal(s, 1)
				return prompt.Int(sig.Get()), nil
			}),
		}
	})
	_, err := prompt.NewResolver().Resolve(context.Background(), App, first())
	require.ErrorIs(t, err, domain.ErrOutsideRender)
	assert.Contains(t, err.Error(), "App")

	Direct := prompt.Func("Direct", func(s *prompt.Scope) prompt.Node {
		return prompt.Async(func(ctx context.Context) (prompt.Node, error) {
			v, _ := prompt.UseInput[string](s)
			return prompt.Text(v), nil
		})
	})
	_, err = prompt.NewResolver().Resolve(context.Background(), Direct, first())
	assert.ErrorIs(t, err, domain.ErrOutsideRender)
}

func TestResolve_AsyncPanicPropagates(t *testing.T) {
	root := prompt.Async(func(ctx context.Context) (prompt.Node, error) { panic("boom") })
	assert.PanicsWithValue(t, "boom", func() {
		_, _ = prompt.NewResolver().Resolve(context.Background(), root, first())
	})
}

func TestResolve_CrossThreadState(t *testing.T) {
	store := state.NewStore()
	var shared, local prompt.Signal[int]
	App := prompt.Func("App", func(s *prompt.Scope) prompt.Node {
		shared = prompt.UseSignal(s, 0, prompt.CrossThread())
		local = prompt.UseSignal(s, 0)
		return prompt.Textf("%d/%d", shared.Get(), local.Get())
	})

	r := prompt.NewResolver(prompt.WithStore(store))
	mainOut := resolve(t, r, App, prompt.Pass{Thread: domain.NewThreadState("main")})
	shared.Set(5)
	local.Set(5)

	other := resolve(t, r, App, prompt.Pass{Thread: domain.NewThreadState("other")})
	assert.Equal(t, "5/0", promptText(t, other))
	assert.Equal(t, 1, store.Len())

	assert.Equal(t, "5/5", promptText(t, rerender(t, mainOut)))
}

func TestResolve_ConcurrencyLimit(t *testing.T) {
	var active, peak atomic.Int32
	item := func() prompt.Async {
		return func(ctx context.Context) (prompt.Node, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return prompt.Text("x"), nil
		}
	}
	root := prompt.Fragment{item(), item(), item(), item()}

	out := resolve(t, prompt.NewResolver(prompt.WithConcurrency(1)), root, first())
	assert.Equal(t, "xxxx", promptText(t, out))
	assert.Equal(t, int32(1), peak.Load())
}

func TestResolve_Numbers(t *testing.T) {
	root := prompt.Fragment{prompt.Int(-3), prompt.Text(" "), prompt.Float(1.5), prompt.Text(" "), prompt.Float(2)}
	out := resolve(t, prompt.NewResolver(), root, first())
	assert.Equal(t, "-3 1.5 2", promptText(t, out))

	for f, want := range map[float64]string{
		1e21:        "1e+21",
		-2.5e22:     "-2.5e+22",
		123456.789:  "123456.789",
		1e20:        "100000000000000000000",
		0.000001:    "0.000001",
		1.5e-7:      "1.5e-7",
		0:           "0",
		math.Inf(1): "Infinity",
	} {
		out := resolve(t, prompt.NewResolver(), prompt.Float(f), first())
		assert.Equal(t, want, promptText(t, out), "%v", f)
	}
}
