package serializer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/prompt"
)

// DefaultGap is the number of newlines separating blocks.
const DefaultGap = 2

// Output is the text of a resolved tree.
type Output struct {
	Prompt string
	System string
	// Actions lists the names of the declared actions in document order.
	Actions []string
}

// Serializer renders resolved trees.
type Serializer struct {
	gap int
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithGap sets the number of newlines separating blocks.
func WithGap(gap int) Option {
	return func(s *Serializer) {
		if gap > 0 {
			s.gap = gap
		}
	}
}

// New creates a serializer.
func New(opts ...Option) *Serializer {
	s := &Serializer{gap: DefaultGap}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stringify renders a resolved tree with the default gap.
func Stringify(tree prompt.Resolved) (Output, error) {
	return New().Stringify(tree)
}

type walker struct {
	gap     int
	system  []fragment
	actions []string
	seen    map[string]bool
}

// Stringify renders a resolved tree. Unknown tags abort with domain.ErrUnknownTag.
func (s *Serializer) Stringify(tree prompt.Resolved) (Output, error) {
	w := &walker{gap: s.gap, seen: make(map[string]bool)}

	var root fragment
	switch n := tree.(type) {
	case *prompt.TagNode:
		f, err := w.tag(n)
		if err != nil {
			return Output{}, err
		}
		root = f
	default:
		frags, err := w.nodes(tree)
		if err != nil {
			return Output{}, err
		}
		root = reduce(frags, s.gap)
	}

	return Output{
		Prompt:  root.value,
		System:  join(w.system, s.gap),
		Actions: w.actions,
	}, nil
}

func (w *walker) nodes(n prompt.Resolved) ([]fragment, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case prompt.ResolvedText:
		return []fragment{{kind: kindInline, value: string(v)}}, nil
	case prompt.ResolvedList:
		var out []fragment
		for _, c := range v {
			frags, err := w.nodes(c)
			if err != nil {
				return nil, err
			}
			out = append(out, frags...)
		}
		return out, nil
	case *prompt.FunctionNode:
		frags, err := w.nodes(v.Children)
		if err != nil {
			return nil, err
		}
		return []fragment{reduce(frags, w.gap)}, nil
	case *prompt.TagNode:
		f, err := w.tag(v)
		if err != nil {
			return nil, err
		}
		return []fragment{f}, nil
	}
	return nil, fmt.Errorf("unsupported resolved node %T", n)
}

func (w *walker) tag(n *prompt.TagNode) (fragment, error) {
	if a, ok := n.Tag.(prompt.ActionTag); ok {
		return w.action(a), nil
	}

	children, err := w.nodes(n.Children)
	if err != nil {
		return null, err
	}

	switch t := n.Tag.(type) {
	case prompt.SystemTag:
		// Each directive is its own block of system text.
		if f := reduce(children, w.gap); f.kind != kindNull {
			w.system = append(w.system, fragment{kind: kindBlock, value: f.value})
		}
		return null, nil
	case prompt.LinkTag:
		return fragment{kind: kindInline, value: "[" + t.Href + "](" + join(children, 0) + ")"}, nil
	case prompt.BreakTag:
		return fragment{kind: kindInline, value: "\n"}, nil
	case prompt.BlockTag:
		return fragment{kind: kindBlock, value: namedBlock(t, join(children, w.gap))}, nil
	case prompt.ParagraphTag, prompt.ListItemTag:
		return fragment{kind: kindBlock, value: join(children, w.gap)}, nil
	case prompt.ListTag:
		return fragment{kind: kindBlock, value: list(blocks(children), t.Ordered)}, nil
	case prompt.GroupTag:
		gap := t.Gap
		if gap == 0 {
			gap = DefaultGap
		}
		return fragment{kind: kindBlock, value: join(children, gap)}, nil
	}
	return null, &domain.UnknownTagError{Tag: n.Tag.TagName()}
}

func (w *walker) action(a prompt.ActionTag) fragment {
	if !w.seen[a.Action.Name] {
		w.seen[a.Action.Name] = true
		w.actions = append(w.actions, a.Action.Name)
	}
	if !a.Inline {
		return null
	}
	return fragment{
		kind:  kindBlock,
		value: fmt.Sprintf("<related-action name=%q>\n%s\n</related-action>", a.Action.Name, a.Action.Description),
	}
}

func namedBlock(t prompt.BlockTag, content string) string {
	name := t.As
	if name == "" {
		name = t.Name
	}
	open := []string{name}
	if t.ID != "" {
		open = append(open, `id="`+t.ID+`"`)
	}
	for _, a := range t.Attrs {
		open = append(open, a.Key+`="`+a.Value+`"`)
	}

	var b strings.Builder
	b.WriteString("<" + strings.Join(open, " ") + ">")
	if content != "" {
		b.WriteString("\n" + content + "\n")
	}
	b.WriteString("</" + name + ">")
	return b.String()
}

var (
	bulletItem  = bulletRules{starts: regexp.MustCompile(`^- `), nested: regexp.MustCompile(`\n+(-) `)}
	ordinalItem = bulletRules{starts: regexp.MustCompile(`^\d+\. `), nested: regexp.MustCompile(`\n+(\d+\.) `)}
	lineBreaks  = regexp.MustCompile(`(\n*)\n`)
)

type bulletRules struct {
	starts *regexp.Regexp
	nested *regexp.Regexp
}

// list prefixes every block with a bullet or ordinal and indents whatever
// follows a line break inside an item, including nested lists, by four spaces.
func list(items []string, ordered bool) string {
	rules := bulletItem
	if ordered {
		rules = ordinalItem
	}
	out := make([]string, len(items))
	for i, item := range items {
		bullet := "-"
		if ordered {
			bullet = strconv.Itoa(i+1) + "."
		}
		if rules.starts.MatchString(item) {
			item = bullet + " \n" + item
		} else {
			item = bullet + " " + item
		}
		item = rules.nested.ReplaceAllString(item, "\n$1 ")
		out[i] = lineBreaks.ReplaceAllString(item, "$1\n    ")
	}
	return strings.Join(out, "\n")
}
