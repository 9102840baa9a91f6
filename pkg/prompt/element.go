package prompt

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Node is a virtual element: the declarative description handed to the resolver.
// A nil Node renders nothing.
type Node interface {
	node()
}

// Text is a text leaf.
type Text string

// Int is a number rendered in base 10.
type Int int64

// Float is a number rendered in its shortest decimal form.
type Float float64

// Fragment is an ordered list of sibling nodes.
type Fragment []Node

// Async produces its node when resolved. Siblings keep resolving while it runs.
type Async func(ctx context.Context) (Node, error)

func (Text) node()     {}
func (Int) node()      {}
func (Float) node()    {}
func (Fragment) node() {}
func (Async) node()    {}
func (*Element) node() {}

// Textf formats a text leaf.
func Textf(format string, args ...any) Text {
	return Text(fmt.Sprintf(format, args...))
}

// Key distinguishes an element among its siblings. The zero Key means unkeyed.
type Key struct {
	str   string
	num   int64
	isNum bool
	set   bool
}

// StringKey returns a string key.
func StringKey(s string) Key { return Key{str: s, set: true} }

// IntKey returns a numeric key.
func IntKey(n int64) Key { return Key{num: n, isNum: true, set: true} }

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool { return !k.set }

func (k Key) String() string {
	if k.isNum {
		return strconv.FormatInt(k.num, 10)
	}
	return k.str
}

// ToKey converts strings and integers to keys. Other values are formatted with %v.
func ToKey(v any) Key {
	switch k := v.(type) {
	case nil:
		return Key{}
	case Key:
		return k
	case string:
		return StringKey(k)
	case int:
		return IntKey(int64(k))
	case int32:
		return IntKey(int64(k))
	case int64:
		return IntKey(k)
	case uint:
		return uintKey(uint64(k))
	case uint32:
		return IntKey(int64(k))
	case uint64:
		return uintKey(k)
	default:
		return StringKey(fmt.Sprint(v))
	}
}

// uintKey keeps values above MaxInt64 as string keys instead of wrapping.
func uintKey(k uint64) Key {
	if k > math.MaxInt64 {
		return StringKey(strconv.FormatUint(k, 10))
	}
	return IntKey(int64(k))
}

type elementKind uint8

const (
	kindComponent elementKind = iota + 1
	kindProvider
	kindTag
)

// Element is a component, context provider or tag element.
type Element struct {
	kind     elementKind
	key      Key
	identity string

	render func(*Scope) Node

	provides *contextKey
	value    any

	tag      Tag
	children Fragment
}

// WithKey returns a copy of the element carrying key, a string or an integer.
func (e *Element) WithKey(key any) *Element {
	c := *e
	c.key = ToKey(key)
	return &c
}

// Key returns the element's key.
func (e *Element) Key() Key { return e.key }

// Identity returns the component name, the provider identity or the tag name.
func (e *Element) Identity() string {
	if e.kind == kindTag {
		return e.tag.TagName()
	}
	return e.identity
}

// Tag returns the tag record of a tag element, or nil.
func (e *Element) Tag() Tag { return e.tag }

// Children returns the children given to a tag or provider element.
func (e *Element) Children() Fragment { return e.children }
