package cfg

import (
	"fmt"
	"strings"
)

// EdgeAnnotator returns extra text printed after an edge target, or "".
type EdgeAnnotator func(*Edge) string

// Print renders g one node per line:
//
//	0: ENTRY -> [1]
//	4: COND (b) -> [THEN=5, ELSE=7]
//
// Nodes without incoming edges other than the entry are still listed.
func Print(g *Graph) string {
	return PrintAnnotated(g, nil)
}

// PrintAnnotated is Print with per-edge annotations, used to show
// analysis facts next to the edges they hold on.
func PrintAnnotated(g *Graph, annotate EdgeAnnotator) string {
	var sb strings.Builder
	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, "%d: %s", n.ID, n.String())
		if len(n.Out) > 0 {
			sb.WriteString(" -> [")
			for i, e := range n.Out {
				if i > 0 {
					sb.WriteString(", ")
				}
				if e.Role != RoleNormal {
					sb.WriteString(string(e.Role))
					sb.WriteString("=")
				}
				fmt.Fprintf(&sb, "%d", e.To.ID)
				if annotate != nil {
					if a := annotate(e); a != "" {
						sb.WriteString(" ")
						sb.WriteString(a)
					}
				}
			}
			sb.WriteString("]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Dot renders g in Graphviz dot syntax.
func Dot(g *Graph) string {
	var sb strings.Builder
	name := "cfg"
	if g.Method != nil {
		name = g.Method.Name
	}
	fmt.Fprintf(&sb, "digraph %q {\n", name)
	sb.WriteString("\tnode [shape=box fontname=monospace];\n")
	for _, n := range g.Nodes {
		shape := ""
		switch n.Kind {
		case KindEntry, KindExit:
			shape = " shape=oval"
		case KindConditional, KindCase:
			shape = " shape=diamond"
		}
		fmt.Fprintf(&sb, "\tn%d [label=%q%s];\n", n.ID, fmt.Sprintf("%d: %s", n.ID, n.String()), shape)
	}
	for _, e := range g.Edges {
		attrs := ""
		switch e.Role {
		case RoleThen, RoleElse:
			attrs = fmt.Sprintf(" [label=%q]", string(e.Role))
		case RoleException:
			attrs = " [style=dashed label=\"E\"]"
		}
		fmt.Fprintf(&sb, "\tn%d -> n%d%s;\n", e.From.ID, e.To.ID, attrs)
	}
	sb.WriteString("}\n")
	return sb.String()
}
