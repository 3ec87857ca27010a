// Package gflow is a small dataflow framework over cfg graphs.
//
// An analysis supplies a lattice of assumptions and a flow function. The
// solver iterates the flow function to a fixed point and stores one
// assumption per edge. Integrated analyses can additionally propose AST
// rewrites based on the solution; SolveIntegrated records them in a
// jast.ChangeList and applies them once the fixed point is reached.
package gflow

import (
	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// Assumption is a lattice element. The zero value of A (a nil pointer for
// every assumption in this module) is bottom: nothing is known because no
// execution reaches the point. Implementations must accept a nil receiver
// and nil arguments, with Join(nil) returning the receiver unchanged.
// Assumptions are immutable once published on an edge.
type Assumption[A any] interface {
	Join(other A) A
	Equal(other A) bool
	String() string
}

// FlowFunction computes the assumption after n from the assumption before
// it. In a forward analysis "before" is the join of the incoming edges and
// the result is stored on every outgoing edge; a backward analysis swaps
// the roles. Branch nodes therefore fork their input unmodified.
type FlowFunction[A any] interface {
	Interpret(n *cfg.Node, in A) A
}

// Analysis is a flow function plus the assumption at the start node
// (entry when forward, exit when backward).
type Analysis[A any] interface {
	FlowFunction() FlowFunction[A]
	Initial(g *cfg.Graph) A
}

// Transformation records AST edits into a change list.
type Transformation func(cl *jast.ChangeList)

// IntegratedAnalysis can turn its solution into AST rewrites.
type IntegratedAnalysis[A any] interface {
	Analysis[A]
	// Transform returns the rewrite for n, or nil to leave n alone.
	Transform(n *cfg.Node, s Solution[A]) Transformation
}

// Solution is read access to a solved analysis.
type Solution[A any] interface {
	// In returns the assumption flowing into n: the join of its incoming
	// edges when forward, of its outgoing edges when backward.
	In(n *cfg.Node) A
	// Edge returns the assumption stored on e.
	Edge(e *cfg.Edge) A
}

// AssumptionMap holds the assumption of every edge. Missing edges are bottom.
type AssumptionMap[A any] map[*cfg.Edge]A

// IsBottom reports whether a is the bottom element.
func IsBottom[A Assumption[A]](a A) bool {
	var zero A
	return a.Equal(zero)
}

// Join joins a and b, treating the zero value as bottom on either side.
func Join[A Assumption[A]](a, b A) A {
	if IsBottom(a) {
		return b
	}
	return a.Join(b)
}

// Format renders a, printing bottom as ⊥.
func Format[A Assumption[A]](a A) string {
	if IsBottom(a) {
		return "⊥"
	}
	return a.String()
}
