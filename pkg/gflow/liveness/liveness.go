// Package liveness computes live variables with a backward analysis and
// removes stores whose value is never read.
package liveness

import (
	"sort"
	"strings"

	"github.com/willf/bitset"

	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/gflow"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// Assumption is the set of variables that may be read later, indexed by
// Variable.ID. A nil *Assumption is bottom.
type Assumption struct {
	live *bitset.BitSet
	vars map[uint]*jast.Variable
}

// Live reports whether v may be read later.
func (a *Assumption) Live(v *jast.Variable) bool {
	if a == nil {
		return false
	}
	return a.live.Test(uint(v.ID))
}

// Len returns the number of live variables.
func (a *Assumption) Len() int {
	if a == nil {
		return 0
	}
	return int(a.live.Count())
}

func (a *Assumption) Join(other *Assumption) *Assumption {
	if a == nil {
		return other
	}
	if other == nil || a.Equal(other) {
		return a
	}
	return &Assumption{live: a.live.Union(other.live), vars: a.vars}
}

func (a *Assumption) Equal(other *Assumption) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.live.SymmetricDifferenceCardinality(other.live) == 0
}

// String renders the set as {i, j}, sorted by name.
func (a *Assumption) String() string {
	if a == nil {
		return "⊥"
	}
	var names []string
	for i, ok := a.live.NextSet(0); ok; i, ok = a.live.NextSet(i + 1) {
		if v := a.vars[i]; v != nil {
			names = append(names, v.Name)
		}
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}

func (a *Assumption) with(v *jast.Variable, live bool) *Assumption {
	id := uint(v.ID)
	if a.live.Test(id) == live {
		return a
	}
	c := a.live.Clone()
	if live {
		c.Set(id)
	} else {
		c.Clear(id)
	}
	return &Assumption{live: c, vars: a.vars}
}

// Analysis is the backward liveness analysis. Its rewrite removes dead
// stores.
type Analysis struct{}

// New returns the analysis.
func New() *Analysis {
	return &Analysis{}
}

func (a *Analysis) FlowFunction() gflow.FlowFunction[*Assumption] {
	return flowFunction{}
}

// Initial is the empty set at the exit, carrying the variable names of g
// for printing.
func (a *Analysis) Initial(g *cfg.Graph) *Assumption {
	vars := make(map[uint]*jast.Variable)
	for _, p := range g.Method.Params {
		vars[uint(p.ID)] = p
	}
	for _, n := range g.Nodes {
		if n.Var != nil {
			vars[uint(n.Var.ID)] = n.Var
		}
	}
	return &Assumption{live: bitset.New(uint(len(vars))), vars: vars}
}

func (a *Analysis) Transform(n *cfg.Node, s gflow.Solution[*Assumption]) gflow.Transformation {
	if n.Kind != cfg.KindWrite && n.Kind != cfg.KindReadWrite {
		return nil
	}
	out := s.In(n)
	if out == nil || out.Live(n.Var) {
		return nil
	}

	stmt := wholeStatement(n)
	switch e := n.AST.(type) {
	case *jast.DeclarationStatement:
		if e.Init == nil || jast.HasSideEffects(e.Init) {
			return nil
		}
		return func(cl *jast.ChangeList) {
			cl.Replace(e, &jast.DeclarationStatement{Var: e.Var})
		}
	case *jast.BinaryOperation:
		if containsAssignment(e.Right) {
			return nil
		}
		if stmt != nil {
			if !jast.HasSideEffects(e.Right) {
				return func(cl *jast.ChangeList) { cl.Remove(stmt) }
			}
			if e.Op == jast.OpAssign && jast.IsStatementExpr(e.Right) {
				return func(cl *jast.ChangeList) { cl.Replace(e, e.Right) }
			}
			return nil
		}
		if e.Op == jast.OpAssign {
			return func(cl *jast.ChangeList) { cl.Replace(e, e.Right) }
		}
	case *jast.PrefixOperation, *jast.PostfixOperation:
		if stmt != nil {
			return func(cl *jast.ChangeList) { cl.Remove(stmt) }
		}
	}
	return nil
}

// wholeStatement returns the expression statement whose entire expression
// is the AST of n, or nil.
func wholeStatement(n *cfg.Node) *jast.ExpressionStatement {
	if n.Parent == nil {
		return nil
	}
	s, ok := n.Parent.AST.(*jast.ExpressionStatement)
	if !ok || s.Expr != n.AST {
		return nil
	}
	return s
}

func containsAssignment(e jast.Expr) bool {
	found := false
	jast.Inspect(e, func(n jast.Node) bool {
		switch n := n.(type) {
		case *jast.BinaryOperation:
			found = found || n.Op.IsAssignment()
		case *jast.PrefixOperation:
			found = found || n.Op.IsModifying()
		case *jast.PostfixOperation:
			found = true
		}
		return !found
	})
	return found
}

type flowFunction struct{}

func (flowFunction) Interpret(n *cfg.Node, in *Assumption) *Assumption {
	if in == nil {
		return nil
	}
	switch n.Kind {
	case cfg.KindRead, cfg.KindReadWrite:
		return in.with(n.Var, true)
	case cfg.KindWrite:
		return in.with(n.Var, false)
	}
	return in
}
