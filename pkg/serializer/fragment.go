package serializer

import "strings"

// kind classifies the edges of a rendered fragment.
type kind uint8

const (
	kindNull kind = iota
	kindInline
	kindBlock
	kindBlockLeft
	kindBlockRight
)

type fragment struct {
	kind  kind
	value string
}

var null = fragment{}

func (f fragment) opensBlock() bool  { return f.kind == kindBlock || f.kind == kindBlockLeft }
func (f fragment) closesBlock() bool { return f.kind == kindBlock || f.kind == kindBlockRight }

// reduce concatenates fragments, keeping track of whether the result opens
// and closes block-wise. A sequence without contributing fragments is null.
func reduce(frags []fragment, gap int) fragment {
	sep := strings.Repeat("\n", gap)
	var (
		b            strings.Builder
		left, prevBl bool
		n            int
	)
	for _, f := range frags {
		if f.kind == kindNull {
			continue
		}
		if n == 0 {
			left = f.opensBlock()
		} else if f.opensBlock() || prevBl {
			b.WriteString(sep)
		}
		b.WriteString(f.value)
		prevBl = f.closesBlock()
		n++
	}
	if n == 0 {
		return null
	}

	k := kindInline
	switch {
	case left && prevBl:
		k = kindBlock
	case left:
		k = kindBlockLeft
	case prevBl:
		k = kindBlockRight
	}
	return fragment{kind: k, value: strings.TrimSpace(b.String())}
}

// blocks splits fragments into the blocks they form. Edge information is lost,
// so it is only used for content that is itself a block.
func blocks(frags []fragment) []string {
	out := []string{""}
	var prevBl bool
	n := 0
	for _, f := range frags {
		if f.kind == kindNull {
			continue
		}
		if n != 0 && (f.opensBlock() || prevBl) {
			out = append(out, "")
		}
		out[len(out)-1] += f.value
		prevBl = f.closesBlock()
		n++
	}
	return out
}

func join(frags []fragment, gap int) string {
	return strings.Join(blocks(frags), strings.Repeat("\n", gap))
}
