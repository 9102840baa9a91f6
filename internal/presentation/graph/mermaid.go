package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/weft/pkg/prompt"
)

// maxLabel bounds the length of text leaf labels.
const maxLabel = 32

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// Stateful highlights components holding hook slots.
	Stateful bool
	// Actions lists the action names to highlight, e.g. the actions just executed.
	Actions []string
}

// GenerateMermaid produces a Mermaid flowchart of a resolved tree.
// It applies semantic styling:
// - Component: [[Subroutine]]
// - Action: [/Parallelogram/]
// - Text: (Rounded)
// - Tag: [Rectangle]
// Lists are flattened into their parent.
func GenerateMermaid(tree prompt.Resolved, overlay *GraphOverlay) string {
	g := &generator{}
	g.sb.WriteString("graph TD\n")
	g.node(tree, "")

	if overlay != nil {
		g.sb.WriteString("\n    %% Overlay Styles\n")
		g.sb.WriteString("    classDef stateful fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		g.sb.WriteString("    classDef executed fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		if overlay.Stateful {
			for _, id := range g.stateful {
				fmt.Fprintf(&g.sb, "    class %s stateful;\n", id)
			}
		}
		for _, name := range overlay.Actions {
			if id, ok := g.actions[name]; ok {
				fmt.Fprintf(&g.sb, "    class %s executed;\n", id)
			}
		}
	}
	return g.sb.String()
}

type generator struct {
	sb       strings.Builder
	next     int
	stateful []string
	actions  map[string]string
}

func (g *generator) id() string {
	g.next++
	return fmt.Sprintf("n%d", g.next)
}

// node writes n and links it to parent. It returns nothing for empty lists.
func (g *generator) node(n prompt.Resolved, parent string) {
	var id, label, opener, closer string
	switch v := n.(type) {
	case nil:
		return
	case prompt.ResolvedList:
		for _, c := range v {
			g.node(c, parent)
		}
		return
	case prompt.ResolvedText:
		if strings.TrimSpace(string(v)) == "" {
			return
		}
		id, label, opener, closer = g.id(), truncate(string(v)), "(", ")"
	case *prompt.FunctionNode:
		id, label, opener, closer = g.id(), v.Identity, "[[", "]]"
		if !v.Key.IsZero() {
			label += " #" + v.Key.String()
		}
		if v.State != nil && len(v.State.Slots) > 0 {
			g.stateful = append(g.stateful, id)
		}
		defer g.node(v.Children, id)
	case *prompt.TagNode:
		id, label, opener, closer = g.id(), v.Tag.TagName(), "[", "]"
		if a, ok := v.Tag.(prompt.ActionTag); ok {
			label, opener, closer = a.Action.Name, "[/", "/]"
			if g.actions == nil {
				g.actions = make(map[string]string)
			}
			g.actions[a.Action.Name] = id
		}
		defer g.node(v.Children, id)
	default:
		return
	}

	fmt.Fprintf(&g.sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)
	if parent != "" {
		fmt.Fprintf(&g.sb, "    %s --> %s\n", parent, id)
	}
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxLabel {
		return string(r[:maxLabel-1]) + "…"
	}
	return s
}

// escape replaces characters Mermaid labels cannot hold.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
