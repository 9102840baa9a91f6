package serializer

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/prompt"
)

func resolve(t *testing.T, root prompt.Node) prompt.Resolved {
	t.Helper()
	out, err := prompt.NewResolver().Resolve(context.Background(), root, prompt.Pass{
		Thread: domain.NewThreadState("main"),
	})
	require.NoError(t, err)
	return out.Tree
}

func app(children ...prompt.Node) prompt.Node {
	return prompt.Func("App", func(*prompt.Scope) prompt.Node { return prompt.Fragment(children) })
}

func text(t *testing.T, root prompt.Node) string {
	t.Helper()
	out, err := Stringify(resolve(t, root))
	require.NoError(t, err)
	return out.Prompt
}

func lines(s ...string) string { return strings.Join(s, "\n") }

func assertText(t *testing.T, want, got string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("prompt mismatch (-want +got):\n%s", diff)
	}
}

func TestStringify_ConcatenatesText(t *testing.T) {
	got := text(t, app(prompt.Text("Hello"), prompt.Text(" "), prompt.Text("world!")))
	assert.Equal(t, "Hello world!", got)
}

func TestStringify_ConcatenatesBlocks(t *testing.T) {
	got := text(t, app(prompt.P(prompt.Text("Hello")), prompt.P(prompt.Text("world!"))))
	assert.Equal(t, "Hello\n\nworld!", got)
}

func TestStringify_NamedBlock(t *testing.T) {
	got := text(t, app(prompt.Block("message", prompt.Text("Hello world!"))))
	assert.Equal(t, "<message>\nHello world!\n</message>", got)
}

func TestStringify_AdjacentBlocks(t *testing.T) {
	got := text(t, app(
		prompt.Block("message-1", prompt.Text("Hello world!")),
		prompt.Block("message-2", prompt.Text("Hello world!")),
	))
	assertText(t, lines(
		"<message-1>",
		"Hello world!",
		"</message-1>",
		"",
		"<message-2>",
		"Hello world!",
		"</message-2>",
	), got)
}

func TestStringify_NestedBlocks(t *testing.T) {
	got := text(t, app(prompt.Block("chat",
		prompt.Block("message-1", prompt.Text("Hello world!")),
		prompt.Block("message-2", prompt.Text("Hello world!")),
	)))
	assertText(t, lines(
		"<chat>",
		"<message-1>",
		"Hello world!",
		"</message-1>",
		"",
		"<message-2>",
		"Hello world!",
		"</message-2>",
		"</chat>",
	), got)
}

func TestStringify_BlockAttributes(t *testing.T) {
	got := text(t, app(
		prompt.El(prompt.BlockTag{Name: "doc", ID: "a1", Attrs: []prompt.Attr{{Key: "lang", Value: "en"}}}, prompt.Text("x")),
		prompt.El(prompt.BlockTag{Name: "doc", As: "file"}),
	))
	assertText(t, lines(
		`<doc id="a1" lang="en">`,
		"x",
		"</doc>",
		"",
		"<file></file>",
	), got)
}

func TestStringify_MixedTextAndBlocks(t *testing.T) {
	got := text(t, app(
		prompt.Text("hello"),
		prompt.Int(1),
		prompt.Block("block", prompt.Text("x")),
		prompt.Block("block", prompt.Text("x")),
		prompt.Text("world"),
		prompt.Int(2),
		prompt.P(prompt.Text("x")),
		prompt.Int(3),
	))
	assertText(t, lines(
		"hello1",
		"",
		"<block>",
		"x",
		"</block>",
		"",
		"<block>",
		"x",
		"</block>",
		"",
		"world2",
		"",
		"x",
		"",
		"3",
	), got)
}

func TestStringify_OpenEndedComponents(t *testing.T) {
	openLeft := func() prompt.Node {
		return prompt.Func("OpenLeft", func(*prompt.Scope) prompt.Node {
			return prompt.Fragment{prompt.Text("-open"), prompt.P(prompt.Text("block"))}
		})
	}
	openRight := func() prompt.Node {
		return prompt.Func("OpenRight", func(*prompt.Scope) prompt.Node {
			return prompt.Fragment{prompt.P(prompt.Text("block")), prompt.Text("open-")}
		})
	}

	got := text(t, app(
		openLeft(), prompt.Text("hello"),
		openLeft(), prompt.Text("hello"),
		openRight(), prompt.Text("hello"),
		openRight(),
	))
	assertText(t, lines(
		"-open",
		"",
		"block",
		"",
		"hello-open",
		"",
		"block",
		"",
		"hello",
		"",
		"block",
		"",
		"open-hello",
		"",
		"block",
		"",
		"open-",
	), got)
}

func nestedList(ordered bool) prompt.Node {
	list := prompt.Ul
	if ordered {
		list = prompt.Ol
	}
	li := prompt.Li
	s := func(v string) prompt.Node { return prompt.Text(v) }
	return list(
		li(s("point 1")),
		li(s("point 2")),
		li(s("point 3"), list(
			li(s("point 3.1")),
			li(s("point 3.2"), list(
				li(s("point 3.2.1")),
				li(prompt.Fragment{s("point 3.2.2")}),
			)),
		)),
		li(list(
			li(s("point 4.1")),
			li(s("point 4.2")),
		)),
		li(s("point 5"), prompt.Br(), s("hello")),
		li(s("point 6"), prompt.P(s("hello"))),
	)
}

func TestStringify_UnorderedList(t *testing.T) {
	got := text(t, app(nestedList(false)))
	assertText(t, lines(
		"- point 1",
		"- point 2",
		"- point 3",
		"    - point 3.1",
		"    - point 3.2",
		"        - point 3.2.1",
		"        - point 3.2.2",
		"- ",
		"    - point 4.1",
		"    - point 4.2",
		"- point 5",
		"    hello",
		"- point 6",
		"",
		"    hello",
	), got)
}

func TestStringify_OrderedList(t *testing.T) {
	got := text(t, app(nestedList(true), prompt.Ol(prompt.Li(prompt.Text("again")))))
	assertText(t, lines(
		"1. point 1",
		"2. point 2",
		"3. point 3",
		"    1. point 3.1",
		"    2. point 3.2",
		"        1. point 3.2.1",
		"        2. point 3.2.2",
		"4. ",
		"    1. point 4.1",
		"    2. point 4.2",
		"5. point 5",
		"    hello",
		"6. point 6",
		"",
		"    hello",
		"",
		"1. again",
	), got)
}

func TestStringify_Link(t *testing.T) {
	got := text(t, app(prompt.Text("see "), prompt.Link("https://example.com", prompt.Text("the docs"))))
	assert.Equal(t, "see [https://example.com](the docs)", got)
}

func TestStringify_GroupGap(t *testing.T) {
	got := text(t, app(
		prompt.Div(1, prompt.P(prompt.Text("a")), prompt.P(prompt.Text("b"))),
		prompt.Div(0, prompt.P(prompt.Text("c")), prompt.P(prompt.Text("d"))),
	))
	assert.Equal(t, "a\nb\n\nc\n\nd", got)
}

func TestStringify_SystemHoisting(t *testing.T) {
	out, err := Stringify(resolve(t, app(
		prompt.System(prompt.Text("You are terse.")),
		prompt.P(prompt.Text("Question?")),
		prompt.System(prompt.P(prompt.Text("Answer in English."))),
	)))
	require.NoError(t, err)
	assert.Equal(t, "Question?", out.Prompt)
	assert.Equal(t, "You are terse.\n\nAnswer in English.", out.System)
	assert.NotContains(t, out.Prompt, "terse")
}

func TestStringify_SystemHoisting_InlineDirectives(t *testing.T) {
	out, err := Stringify(resolve(t, app(
		prompt.System(prompt.Text("You are terse.")),
		prompt.Text("Question?"),
		prompt.System(prompt.Text("Answer "), prompt.Text("in English.")),
		prompt.System(),
	)))
	require.NoError(t, err)
	assert.Equal(t, "Question?", out.Prompt)
	assert.Equal(t, "You are terse.\n\nAnswer in English.", out.System)
}

func TestStringify_Actions(t *testing.T) {
	search := domain.ActionDescriptor{Name: "search", Description: "Search the web"}
	out, err := Stringify(resolve(t, app(
		prompt.Text("Tools below."),
		prompt.BlockID("tools", "web", prompt.InlineAction(search), prompt.Action(domain.ActionDescriptor{Name: "fetch"})),
		prompt.Action(search),
	)))
	require.NoError(t, err)
	assertText(t, lines(
		"Tools below.",
		"",
		`<tools id="web">`,
		`<related-action name="web_search">`,
		"Search the web",
		"</related-action>",
		"</tools>",
	), out.Prompt)
	assert.Equal(t, []string{"web_search", "web_fetch", "search"}, out.Actions)
}

func TestStringify_UnknownTag(t *testing.T) {
	_, err := Stringify(resolve(t, app(prompt.P(prompt.El(prompt.RawTag{Name: "blink"})))))
	require.ErrorIs(t, err, domain.ErrUnknownTag)

	var tagErr *domain.UnknownTagError
	require.ErrorAs(t, err, &tagErr)
	assert.Equal(t, "blink", tagErr.Tag)
}

func TestStringify_EmptyComponentsContributeNothing(t *testing.T) {
	empty := prompt.Func("Empty", func(*prompt.Scope) prompt.Node { return nil })
	got := text(t, app(prompt.P(prompt.Text("a")), empty, prompt.P(prompt.Text("b"))))
	assert.Equal(t, "a\n\nb", got)
}

func TestSerializer_WithGap(t *testing.T) {
	tree := resolve(t, app(prompt.P(prompt.Text("a")), prompt.P(prompt.Text("b"))))
	out, err := New(WithGap(3)).Stringify(tree)
	require.NoError(t, err)
	assert.Equal(t, "a\n\n\nb", out.Prompt)
}

func TestStringify_RootTag(t *testing.T) {
	out, err := Stringify(resolve(t, prompt.Block("message", prompt.Text("Hello world!"))))
	require.NoError(t, err)
	assert.Equal(t, "<message>\nHello world!\n</message>", out.Prompt)
}
