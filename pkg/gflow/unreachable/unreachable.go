// Package unreachable finds statements no execution can reach and removes
// them.
package unreachable

import (
	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/gflow"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// Assumption is the single non-bottom element. A nil *Assumption marks an
// unreachable point.
type Assumption struct{}

// Reachable is the assumption of every reachable point.
var Reachable = &Assumption{}

func (a *Assumption) Join(other *Assumption) *Assumption {
	if a == nil {
		return other
	}
	return a
}

func (a *Assumption) Equal(other *Assumption) bool {
	return (a == nil) == (other == nil)
}

func (a *Assumption) String() string {
	if a == nil {
		return "⊥"
	}
	return "REACHABLE"
}

// Analysis is the forward reachability analysis.
type Analysis struct{}

// New returns the analysis.
func New() *Analysis {
	return &Analysis{}
}

func (a *Analysis) FlowFunction() gflow.FlowFunction[*Assumption] {
	return flowFunction{}
}

func (a *Analysis) Initial(*cfg.Graph) *Assumption {
	return Reachable
}

// Transform removes the outermost unreachable statements: those whose
// enclosing statement is still reachable. Statements nested in a removed
// one go with it.
func (a *Analysis) Transform(n *cfg.Node, s gflow.Solution[*Assumption]) gflow.Transformation {
	if !n.IsStatement() || s.In(n) != nil {
		return nil
	}
	if n.Parent != nil && s.In(n.Parent) == nil {
		return nil
	}
	// Removing a block from a single-statement slot leaves an empty block.
	if b, ok := n.AST.(*jast.Block); ok && len(b.Stmts) == 0 {
		return nil
	}
	stmt := n.AST
	return func(cl *jast.ChangeList) {
		cl.Remove(stmt)
	}
}

type flowFunction struct{}

func (flowFunction) Interpret(_ *cfg.Node, in *Assumption) *Assumption {
	return in
}
