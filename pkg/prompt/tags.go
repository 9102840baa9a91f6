package prompt

import "github.com/aretw0/weft/pkg/domain"

// Tag is the attribute record of a tag element. Children are not part of it.
type Tag interface {
	TagName() string
}

// BlockPrefix marks the family of named block tags.
const BlockPrefix = "x-"

// Attr is an extra attribute of a named block.
type Attr struct {
	Key   string `json:"key" mapstructure:"key"`
	Value string `json:"value" mapstructure:"value"`
}

// BlockTag is a named structural block rendered as <name id="..."> ... </name>.
// Blocks with an ID contribute it to the names of the actions they contain.
type BlockTag struct {
	Name  string `json:"name" mapstructure:"name"`
	ID    string `json:"id,omitempty" mapstructure:"id"`
	As    string `json:"as,omitempty" mapstructure:"as"` // overrides the rendered tag name
	Attrs []Attr `json:"attrs,omitempty" mapstructure:"attrs"`
}

func (t BlockTag) TagName() string { return BlockPrefix + t.Name }

// LinkTag renders its children as a markdown link.
type LinkTag struct {
	Href string `json:"href" mapstructure:"href"`
}

func (LinkTag) TagName() string { return "a" }

// BreakTag is a line break.
type BreakTag struct{}

func (BreakTag) TagName() string { return "br" }

// ParagraphTag is a block of blank-line separated children.
type ParagraphTag struct{}

func (ParagraphTag) TagName() string { return "p" }

// ListItemTag is a list item.
type ListItemTag struct{}

func (ListItemTag) TagName() string { return "li" }

// ListTag is a bulleted or numbered list.
type ListTag struct {
	Ordered bool `json:"ordered,omitempty" mapstructure:"ordered"`
}

func (t ListTag) TagName() string {
	if t.Ordered {
		return "ol"
	}
	return "ul"
}

// GroupTag joins its children with Gap newlines, two when unset.
type GroupTag struct {
	Gap int `json:"gap,omitempty" mapstructure:"gap"`
}

func (GroupTag) TagName() string { return "div" }

// SystemTag moves its children to the system text.
type SystemTag struct{}

func (SystemTag) TagName() string { return "system" }

// ActionTag declares an action. After resolution Action.Name is the derived name.
type ActionTag struct {
	Action domain.ActionDescriptor
	Inline bool
}

func (ActionTag) TagName() string { return "action" }

// RawTag is any other tag. The serializer rejects it.
type RawTag struct {
	Name string
}

func (t RawTag) TagName() string { return t.Name }

// El returns a tag element.
func El(tag Tag, children ...Node) *Element {
	return &Element{kind: kindTag, tag: tag, children: children}
}

// Block returns a named block element.
func Block(name string, children ...Node) *Element {
	return El(BlockTag{Name: name}, children...)
}

// BlockID returns a named block element with an id.
func BlockID(name, id string, children ...Node) *Element {
	return El(BlockTag{Name: name, ID: id}, children...)
}

// Link returns a link element.
func Link(href string, children ...Node) *Element {
	return El(LinkTag{Href: href}, children...)
}

// Br returns a line break.
func Br() *Element { return El(BreakTag{}) }

// P returns a paragraph.
func P(children ...Node) *Element { return El(ParagraphTag{}, children...) }

// Li returns a list item.
func Li(children ...Node) *Element { return El(ListItemTag{}, children...) }

// Ul returns a bulleted list.
func Ul(children ...Node) *Element { return El(ListTag{}, children...) }

// Ol returns a numbered list.
func Ol(children ...Node) *Element { return El(ListTag{Ordered: true}, children...) }

// Div returns a group joined with gap newlines.
func Div(gap int, children ...Node) *Element {
	return El(GroupTag{Gap: gap}, children...)
}

// System returns a system directive.
func System(children ...Node) *Element { return El(SystemTag{}, children...) }

// Action declares an action available to the model.
func Action(action domain.ActionDescriptor) *Element {
	return El(ActionTag{Action: action})
}

// InlineAction declares an action and describes it in the prompt text.
func InlineAction(action domain.ActionDescriptor) *Element {
	return El(ActionTag{Action: action, Inline: true})
}
