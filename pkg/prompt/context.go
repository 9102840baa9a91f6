package prompt

type contextKey struct {
	name string
}

// Context is a value provided to a subtree.
type Context[T any] struct {
	key *contextKey
	def T
}

// NewContext creates a context with a default value returned outside any provider.
func NewContext[T any](name string, def T) *Context[T] {
	return &Context[T]{key: &contextKey{name: name}, def: def}
}

// Name returns the context name.
func (c *Context[T]) Name() string { return c.key.name }

// Provide returns a provider element exposing value to children.
func (c *Context[T]) Provide(value T, children ...Node) *Element {
	return &Element{
		kind:     kindProvider,
		identity: "context:" + c.key.name,
		provides: c.key,
		value:    value,
		children: children,
	}
}

// snapshot holds the provided values visible at one point of the tree.
// It is never mutated once built.
type snapshot map[*contextKey]any

func (s snapshot) with(key *contextKey, value any) snapshot {
	next := make(snapshot, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	next[key] = value
	return next
}

func lookup[T any](s snapshot, c *Context[T]) T {
	v, ok := s[c.key]
	if !ok {
		return c.def
	}
	t, _ := v.(T)
	return t
}
