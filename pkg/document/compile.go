package document

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/prompt"
)

// compiler turns the generic values of one document into nodes.
type compiler struct {
	lib   *Library
	ctx   context.Context
	stack []string // include chain, outermost first
}

type linkSpec struct {
	Href     string `mapstructure:"href"`
	Text     string `mapstructure:"text"`
	Children any    `mapstructure:"children"`
}

type blockSpec struct {
	Name     string            `mapstructure:"name"`
	ID       string            `mapstructure:"id"`
	As       string            `mapstructure:"as"`
	Attrs    map[string]string `mapstructure:"attrs"`
	Children any               `mapstructure:"children"`
}

type divSpec struct {
	Gap      int `mapstructure:"gap"`
	Children any `mapstructure:"children"`
}

type inputSpec struct {
	Format  string `mapstructure:"format"`
	Default any    `mapstructure:"default"`
}

type provideSpec struct {
	Name     string `mapstructure:"name"`
	Value    any    `mapstructure:"value"`
	Children any    `mapstructure:"children"`
}

type useSpec struct {
	Name   string `mapstructure:"name"`
	Format string `mapstructure:"format"`
}

// decode is mapstructure.Decode with unknown fields rejected.
func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{ErrorUnused: true, Result: out})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func invalid(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrInvalidDocument, path, fmt.Sprintf(format, args...))
}

// node compiles one value found at path.
func (c *compiler) node(path string, v any) (prompt.Node, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return prompt.Text(val), nil
	case bool:
		return prompt.Text(strconv.FormatBool(val)), nil
	case int:
		return prompt.Int(val), nil
	case int64:
		return prompt.Int(val), nil
	case uint64:
		return prompt.Int(int64(val)), nil
	case float64:
		return prompt.Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return prompt.Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, invalid(path, "bad number %q", val.String())
		}
		return prompt.Float(f), nil
	case []any:
		return c.list(path, val)
	case map[string]any:
		return c.tag(path, val)
	case map[any]any:
		m, err := stringKeys(path, val)
		if err != nil {
			return nil, err
		}
		return c.tag(path, m)
	}
	return nil, invalid(path, "unsupported value %T", v)
}

func (c *compiler) list(path string, items []any) (prompt.Fragment, error) {
	out := make(prompt.Fragment, 0, len(items))
	for i, item := range items {
		n, err := c.node(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// children compiles v as a child list. A single value is one child.
func (c *compiler) children(path string, v any) ([]prompt.Node, error) {
	if items, ok := v.([]any); ok {
		return c.list(path, items)
	}
	n, err := c.node(path, v)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return []prompt.Node{n}, nil
}

func (c *compiler) tag(path string, m map[string]any) (prompt.Node, error) {
	var key any
	name := ""
	for k := range m {
		if k == "key" {
			key = m[k]
			continue
		}
		if name != "" {
			return nil, invalid(path, "expected one tag, got %q and %q", name, k)
		}
		name = k
	}
	if name == "" {
		return nil, invalid(path, "missing tag")
	}

	el, err := c.element(path+"."+name, name, m[name])
	if err != nil {
		return nil, err
	}
	if key != nil {
		el = el.WithKey(key)
	}
	return el, nil
}

func (c *compiler) element(path, name string, v any) (*prompt.Element, error) {
	switch name {
	case "p", "li", "system":
		children, err := c.children(path, v)
		if err != nil {
			return nil, err
		}
		switch name {
		case "p":
			return prompt.P(children...), nil
		case "li":
			return prompt.Li(children...), nil
		}
		return prompt.System(children...), nil

	case "ul", "ol":
		items, err := c.items(path, v)
		if err != nil {
			return nil, err
		}
		if name == "ol" {
			return prompt.Ol(items...), nil
		}
		return prompt.Ul(items...), nil

	case "br":
		return prompt.Br(), nil

	case "div":
		spec := divSpec{Children: v}
		if m, ok := v.(map[string]any); ok && hasAny(m, "gap", "children") {
			if err := decode(m, &spec); err != nil {
				return nil, invalid(path, "%v", err)
			}
		}
		children, err := c.children(path, spec.Children)
		if err != nil {
			return nil, err
		}
		return prompt.Div(spec.Gap, children...), nil

	case "a":
		var spec linkSpec
		if err := decode(v, &spec); err != nil {
			return nil, invalid(path, "%v", err)
		}
		if spec.Href == "" {
			return nil, invalid(path, "missing href")
		}
		if spec.Text != "" {
			return prompt.Link(spec.Href, prompt.Text(spec.Text)), nil
		}
		children, err := c.children(path, spec.Children)
		if err != nil {
			return nil, err
		}
		return prompt.Link(spec.Href, children...), nil

	case "block":
		var spec blockSpec
		if err := decode(v, &spec); err != nil {
			return nil, invalid(path, "%v", err)
		}
		return c.block(path, spec)

	case "action":
		var spec ActionSpec
		if err := decode(v, &spec); err != nil {
			return nil, invalid(path, "%v", err)
		}
		if spec.Name == "" {
			return nil, invalid(path, "missing name")
		}
		return c.lib.action(spec)

	case "input":
		spec := inputSpec{Format: "%v"}
		if s, ok := v.(string); ok {
			spec.Format = s
		} else if err := decode(v, &spec); err != nil {
			return nil, invalid(path, "%v", err)
		}
		return inputElement(spec), nil

	case "thread":
		format := "%s"
		if s, ok := v.(string); ok && s != "" {
			format = s
		}
		return prompt.Func("Thread", func(s *prompt.Scope) prompt.Node {
			return prompt.Textf(format, prompt.UseThread(s))
		}), nil

	case "include":
		ref, ok := v.(string)
		if !ok || ref == "" {
			return nil, invalid(path, "include expects a document name")
		}
		return c.lib.compile(c.ctx, ref, c.stack)

	case "provide":
		var spec provideSpec
		if err := decode(v, &spec); err != nil {
			return nil, invalid(path, "%v", err)
		}
		if spec.Name == "" {
			return nil, invalid(path, "missing name")
		}
		children, err := c.children(path, spec.Children)
		if err != nil {
			return nil, err
		}
		return c.lib.Context(spec.Name).Provide(spec.Value, children...), nil

	case "use":
		spec := useSpec{Format: "%v"}
		if s, ok := v.(string); ok {
			spec.Name = s
		} else if err := decode(v, &spec); err != nil {
			return nil, invalid(path, "%v", err)
		}
		if spec.Name == "" {
			return nil, invalid(path, "missing name")
		}
		ctxVal := c.lib.Context(spec.Name)
		return prompt.Func("Use:"+spec.Name, func(s *prompt.Scope) prompt.Node {
			value := prompt.UseContext(s, ctxVal)
			if value == nil {
				return nil
			}
			return prompt.Textf(spec.Format, value)
		}), nil
	}

	if block, ok := strings.CutPrefix(name, prompt.BlockPrefix); ok && block != "" {
		spec := blockSpec{Name: block, Children: v}
		if m, ok := v.(map[string]any); ok && hasAny(m, "children", "id", "as", "attrs") {
			if err := decode(m, &spec); err != nil {
				return nil, invalid(path, "%v", err)
			}
			spec.Name = block
		}
		return c.block(path, spec)
	}

	return nil, invalid(path, "unknown tag %q", name)
}

// items compiles list items, wrapping anything that is not already an li.
func (c *compiler) items(path string, v any) ([]prompt.Node, error) {
	children, err := c.children(path, v)
	if err != nil {
		return nil, err
	}
	out := make([]prompt.Node, 0, len(children))
	for _, child := range children {
		if el, ok := child.(*prompt.Element); ok {
			if _, isItem := el.Tag().(prompt.ListItemTag); isItem {
				out = append(out, el)
				continue
			}
		}
		out = append(out, prompt.Li(child))
	}
	return out, nil
}

func (c *compiler) block(path string, spec blockSpec) (*prompt.Element, error) {
	if spec.Name == "" {
		return nil, invalid(path, "missing block name")
	}
	children, err := c.children(path, spec.Children)
	if err != nil {
		return nil, err
	}
	tag := prompt.BlockTag{Name: spec.Name, ID: spec.ID, As: spec.As}
	keys := make([]string, 0, len(spec.Attrs))
	for k := range spec.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tag.Attrs = append(tag.Attrs, prompt.Attr{Key: k, Value: spec.Attrs[k]})
	}
	return prompt.El(tag, children...), nil
}

func inputElement(spec inputSpec) *prompt.Element {
	return prompt.Func("Input", func(s *prompt.Scope) prompt.Node {
		v, ok := prompt.UseInput[any](s)
		if !ok || v == nil {
			if spec.Default == nil {
				return nil
			}
			v = spec.Default
		}
		return prompt.Textf(spec.Format, v)
	})
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func stringKeys(path string, m map[any]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		s, ok := k.(string)
		if !ok {
			return nil, invalid(path, "non-string key %v", k)
		}
		out[s] = v
	}
	return out, nil
}
