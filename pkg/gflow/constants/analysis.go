package constants

import (
	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/gflow"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// Analysis is the forward constant propagation analysis. Its rewrite
// replaces a read of a variable holding a known constant with a copy of
// the literal.
type Analysis struct{}

// New returns the analysis.
func New() *Analysis {
	return &Analysis{}
}

func (a *Analysis) FlowFunction() gflow.FlowFunction[*Assumption] {
	return flowFunction{}
}

// Initial marks every parameter Top; locals start Unknown.
func (a *Analysis) Initial(g *cfg.Graph) *Assumption {
	u := newUpdater(Empty)
	for _, p := range g.Method.Params {
		u.set(p, TopValue)
	}
	return u.unwrap()
}

func (a *Analysis) Transform(n *cfg.Node, s gflow.Solution[*Assumption]) gflow.Transformation {
	if n.Kind != cfg.KindRead {
		return nil
	}
	lit, ok := s.In(n).Lookup(n.Var)
	if !ok {
		return nil
	}
	ref := n.AST
	return func(cl *jast.ChangeList) {
		cl.Replace(ref, jast.CloneLiteral(lit))
	}
}

type flowFunction struct{}

func (flowFunction) Interpret(n *cfg.Node, in *Assumption) *Assumption {
	if in == nil {
		return nil
	}
	switch n.Kind {
	case cfg.KindWrite:
		val := TopValue
		if n.Value != nil {
			if lit, ok := Evaluate(n.Value, in.Lookup); ok {
				if lit, ok = Coerce(lit, n.Var.Type); ok {
					val = ConstantValue(lit)
				}
			}
		}
		u := newUpdater(in)
		u.set(n.Var, val)
		return u.unwrap()
	case cfg.KindReadWrite:
		u := newUpdater(in)
		u.set(n.Var, TopValue)
		return u.unwrap()
	}
	return in
}
