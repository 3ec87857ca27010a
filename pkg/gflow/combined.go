package gflow

import (
	"strings"

	"github.com/l3aro/go-gflow/pkg/cfg"
)

// Component is one member of a CombinedIntegratedAnalysis. Wrap an
// analysis with Integrate to get one.
type Component interface {
	name() string
	initial(g *cfg.Graph) any
	bottom() any
	interpret(n *cfg.Node, in any) any
	join(a, b any) any
	equal(a, b any) bool
	format(a any) string
	transform(n *cfg.Node, s Solution[*CombinedAssumption], i int) Transformation
}

type component[A Assumption[A]] struct {
	label    string
	analysis IntegratedAnalysis[A]
	ff       FlowFunction[A]
}

// Integrate wraps a for use in a combined analysis. The label names the
// component in printed assumptions.
func Integrate[A Assumption[A]](label string, a IntegratedAnalysis[A]) Component {
	return &component[A]{label: label, analysis: a, ff: a.FlowFunction()}
}

func (c *component[A]) name() string { return c.label }

func (c *component[A]) initial(g *cfg.Graph) any { return c.analysis.Initial(g) }

func (c *component[A]) bottom() any {
	var zero A
	return zero
}

func (c *component[A]) interpret(n *cfg.Node, in any) any {
	return c.ff.Interpret(n, in.(A))
}

func (c *component[A]) join(a, b any) any { return Join(a.(A), b.(A)) }

func (c *component[A]) equal(a, b any) bool { return a.(A).Equal(b.(A)) }

func (c *component[A]) format(a any) string { return Format(a.(A)) }

func (c *component[A]) transform(n *cfg.Node, s Solution[*CombinedAssumption], i int) Transformation {
	return c.analysis.Transform(n, &projection[A]{parent: s, c: c, index: i})
}

// projection views one component of a combined solution.
type projection[A Assumption[A]] struct {
	parent Solution[*CombinedAssumption]
	c      *component[A]
	index  int
}

func (p *projection[A]) In(n *cfg.Node) A {
	return p.parent.In(n).part(p.c, p.index).(A)
}

func (p *projection[A]) Edge(e *cfg.Edge) A {
	return p.parent.Edge(e).part(p.c, p.index).(A)
}

// CombinedAssumption is the tuple of component assumptions. A nil
// *CombinedAssumption is bottom and stands for every component at bottom.
type CombinedAssumption struct {
	owner *CombinedIntegratedAnalysis
	parts []any
}

// Part returns the assumption of component i.
func (a *CombinedAssumption) Part(i int) any {
	if a == nil {
		return nil
	}
	return a.parts[i]
}

func (a *CombinedAssumption) part(c Component, i int) any {
	if a == nil {
		return c.bottom()
	}
	return a.parts[i]
}

func (a *CombinedAssumption) Join(other *CombinedAssumption) *CombinedAssumption {
	if a == nil {
		return other
	}
	if other == nil {
		return a
	}
	if a.owner != other.owner {
		panic("gflow: joining assumptions of different combined analyses")
	}
	parts := make([]any, len(a.parts))
	for i, c := range a.owner.components {
		parts[i] = c.join(a.parts[i], other.parts[i])
	}
	return &CombinedAssumption{owner: a.owner, parts: parts}
}

func (a *CombinedAssumption) Equal(other *CombinedAssumption) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.owner != other.owner {
		return false
	}
	for i, c := range a.owner.components {
		if !c.equal(a.parts[i], other.parts[i]) {
			return false
		}
	}
	return true
}

func (a *CombinedAssumption) String() string {
	if a == nil {
		return "⊥"
	}
	var sb strings.Builder
	sb.WriteString("(")
	for i, c := range a.owner.components {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(c.name())
		sb.WriteString(": ")
		sb.WriteString(c.format(a.parts[i]))
	}
	sb.WriteString(")")
	return sb.String()
}

// CombinedIntegratedAnalysis runs several integrated analyses in one solve
// over tupled assumptions. When more than one component proposes a rewrite
// for the same node, the first component in order wins.
type CombinedIntegratedAnalysis struct {
	components []Component
}

// NewCombined builds a combined analysis from components.
func NewCombined(components ...Component) *CombinedIntegratedAnalysis {
	if len(components) == 0 {
		panic("gflow: combined analysis needs at least one component")
	}
	return &CombinedIntegratedAnalysis{components: components}
}

// Len returns the number of components.
func (c *CombinedIntegratedAnalysis) Len() int { return len(c.components) }

// Index returns the position of the component with the given label, or -1.
func (c *CombinedIntegratedAnalysis) Index(label string) int {
	for i, comp := range c.components {
		if comp.name() == label {
			return i
		}
	}
	return -1
}

func (c *CombinedIntegratedAnalysis) FlowFunction() FlowFunction[*CombinedAssumption] {
	return c
}

func (c *CombinedIntegratedAnalysis) Initial(g *cfg.Graph) *CombinedAssumption {
	parts := make([]any, len(c.components))
	for i, comp := range c.components {
		parts[i] = comp.initial(g)
	}
	return c.normalize(parts)
}

// Interpret applies every component's flow function to its own part.
func (c *CombinedIntegratedAnalysis) Interpret(n *cfg.Node, in *CombinedAssumption) *CombinedAssumption {
	parts := make([]any, len(c.components))
	for i, comp := range c.components {
		parts[i] = comp.interpret(n, in.part(comp, i))
	}
	return c.normalize(parts)
}

func (c *CombinedIntegratedAnalysis) Transform(n *cfg.Node, s Solution[*CombinedAssumption]) Transformation {
	for i, comp := range c.components {
		if t := comp.transform(n, s, i); t != nil {
			return t
		}
	}
	return nil
}

// normalize collapses an all-bottom tuple to nil so bottom has one
// representation.
func (c *CombinedIntegratedAnalysis) normalize(parts []any) *CombinedAssumption {
	for i, comp := range c.components {
		if !comp.equal(parts[i], comp.bottom()) {
			return &CombinedAssumption{owner: c, parts: parts}
		}
	}
	return nil
}
