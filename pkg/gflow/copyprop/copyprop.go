// Package copyprop tracks which locals are copies of other locals and
// rewrites reads of a copy into reads of the original.
package copyprop

import (
	"sort"
	"strings"

	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/gflow"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// Assumption maps a variable to the variable it was copied from. A nil
// original is Top: the variable was written with something that is not a
// copy, or its copy was killed. A nil *Assumption is bottom.
type Assumption struct {
	originals map[*jast.Variable]*jast.Variable
}

// Empty is the assumption with no recorded copies.
var Empty = &Assumption{}

// Original returns the variable v is a copy of, or nil.
func (a *Assumption) Original(v *jast.Variable) *jast.Variable {
	if a == nil {
		return nil
	}
	return a.originals[v]
}

// Join keeps a record only when both sides agree on it. A variable
// recorded on one side only becomes Top.
func (a *Assumption) Join(other *Assumption) *Assumption {
	if a == nil {
		return other
	}
	if other == nil || a == other {
		return a
	}
	u := newUpdater(a)
	for v, o := range a.originals {
		if oo, ok := other.originals[v]; !ok || oo != o {
			u.set(v, nil)
		}
	}
	for v := range other.originals {
		if _, ok := a.originals[v]; !ok {
			u.set(v, nil)
		}
	}
	return u.unwrap()
}

func (a *Assumption) Equal(other *Assumption) bool {
	if a == nil || other == nil {
		return a == other
	}
	if len(a.originals) != len(other.originals) {
		return false
	}
	for v, o := range a.originals {
		oo, ok := other.originals[v]
		if !ok || oo != o {
			return false
		}
	}
	return true
}

// String renders the assumption as {i = T, j = i}, sorted by name.
func (a *Assumption) String() string {
	if a == nil {
		return "⊥"
	}
	vars := make([]*jast.Variable, 0, len(a.originals))
	for v := range a.originals {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool {
		if vars[i].Name != vars[j].Name {
			return vars[i].Name < vars[j].Name
		}
		return vars[i].ID < vars[j].ID
	})

	var sb strings.Builder
	sb.WriteString("{")
	for i, v := range vars {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.Name)
		sb.WriteString(" = ")
		if o := a.originals[v]; o != nil {
			sb.WriteString(o.Name)
		} else {
			sb.WriteString("T")
		}
	}
	sb.WriteString("}")
	return sb.String()
}

type updater struct {
	orig      *Assumption
	originals map[*jast.Variable]*jast.Variable
}

func newUpdater(a *Assumption) *updater {
	return &updater{orig: a}
}

func (u *updater) set(v, original *jast.Variable) {
	if u.originals == nil {
		if cur, ok := u.orig.originals[v]; ok && cur == original {
			return
		}
		u.originals = make(map[*jast.Variable]*jast.Variable, len(u.orig.originals)+1)
		for k, o := range u.orig.originals {
			u.originals[k] = o
		}
	}
	u.originals[v] = original
}

// kill forgets everything known about v: its own record and every record
// naming v as the original.
func (u *updater) kill(v *jast.Variable) {
	u.set(v, nil)
	for k, o := range u.orig.originals {
		if o == v {
			u.set(k, nil)
		}
	}
}

func (u *updater) unwrap() *Assumption {
	if u.originals == nil {
		return u.orig
	}
	return &Assumption{originals: u.originals}
}

// Analysis is the forward copy propagation analysis.
type Analysis struct{}

// New returns the analysis.
func New() *Analysis {
	return &Analysis{}
}

func (a *Analysis) FlowFunction() gflow.FlowFunction[*Assumption] {
	return flowFunction{}
}

func (a *Analysis) Initial(*cfg.Graph) *Assumption {
	return Empty
}

// Transform rewrites a read of a copy into a read of its original. The
// original must still be declared at the read; a record made inside a
// nested block survives the block, its original does not.
func (a *Analysis) Transform(n *cfg.Node, s gflow.Solution[*Assumption]) gflow.Transformation {
	if n.Kind != cfg.KindRead {
		return nil
	}
	o := s.In(n).Original(n.Var)
	if o == nil || !n.Scope.Declares(o) {
		return nil
	}
	ref := n.AST
	return func(cl *jast.ChangeList) {
		cl.Replace(ref, jast.Ref(o))
	}
}

type flowFunction struct{}

func (flowFunction) Interpret(n *cfg.Node, in *Assumption) *Assumption {
	if in == nil {
		return nil
	}
	switch n.Kind {
	case cfg.KindWrite:
		u := newUpdater(in)
		u.kill(n.Var)
		if src, ok := n.Value.(*jast.VariableRef); ok && src.Var.Type == n.Var.Type {
			original := in.Original(src.Var)
			if original == nil || !n.Scope.Declares(original) {
				original = src.Var
			}
			if original != n.Var {
				u.set(n.Var, original)
			}
		}
		return u.unwrap()
	case cfg.KindReadWrite:
		u := newUpdater(in)
		u.kill(n.Var)
		return u.unwrap()
	}
	return in
}
