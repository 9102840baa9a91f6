package prompt

// Component is a named function from props to a node.
// The name is the component's identity when matching against a previous pass.
type Component[P any] struct {
	name string
	fn   func(*Scope, P) Node
}

// Define declares a component. Names should be unique within an application;
// two components sharing a name share hook state when they meet at the same position.
func Define[P any](name string, fn func(s *Scope, props P) Node) *Component[P] {
	return &Component[P]{name: name, fn: fn}
}

// Name returns the component name.
func (c *Component[P]) Name() string { return c.name }

// New returns an element rendering the component with props.
func (c *Component[P]) New(props P) *Element {
	fn := c.fn
	return &Element{
		kind:     kindComponent,
		identity: c.name,
		render:   func(s *Scope) Node { return fn(s, props) },
	}
}

// Keyed returns an element rendering the component with props under key.
func (c *Component[P]) Keyed(key any, props P) *Element {
	el := c.New(props)
	el.key = ToKey(key)
	return el
}

// Func returns a component element without props.
func Func(name string, fn func(s *Scope) Node) *Element {
	return &Element{kind: kindComponent, identity: name, render: fn}
}
