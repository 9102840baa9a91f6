package prompt

import "github.com/aretw0/weft/pkg/state"

// Resolved is a node of a resolved tree.
type Resolved interface {
	resolved()
}

// ResolvedText is a text leaf.
type ResolvedText string

// ResolvedList is an ordered list of resolved siblings.
type ResolvedList []Resolved

// FunctionNode is a resolved component or context provider.
type FunctionNode struct {
	Identity string
	Key      Key
	// Path is the stable position of the component used to scope cross-thread state.
	Path     string
	Children Resolved
	State    *state.ComponentState
}

// TagNode is a resolved tag.
type TagNode struct {
	Tag      Tag
	Key      Key
	Children Resolved
}

func (ResolvedText) resolved()  {}
func (ResolvedList) resolved()  {}
func (*FunctionNode) resolved() {}
func (*TagNode) resolved()      {}

// Walk calls fn for every node of the tree in document order.
// Children are skipped when fn returns false.
func Walk(n Resolved, fn func(Resolved) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case ResolvedList:
		for _, c := range v {
			Walk(c, fn)
		}
	case *FunctionNode:
		Walk(v.Children, fn)
	case *TagNode:
		Walk(v.Children, fn)
	}
}

// Actions returns the action tags of the tree in document order.
func Actions(n Resolved) []ActionTag {
	var out []ActionTag
	Walk(n, func(r Resolved) bool {
		if t, ok := r.(*TagNode); ok {
			if a, ok := t.Tag.(ActionTag); ok {
				out = append(out, a)
			}
		}
		return true
	})
	return out
}

func keyOf(n Resolved) (Key, bool) {
	switch v := n.(type) {
	case *FunctionNode:
		return v.Key, true
	case *TagNode:
		return v.Key, true
	}
	return Key{}, false
}
