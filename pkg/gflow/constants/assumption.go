// Package constants propagates compile-time constant values of locals and
// folds reads of them into literals.
package constants

import (
	"sort"
	"strings"

	"github.com/l3aro/go-gflow/pkg/jast"
)

// Kind is the state of one variable in an Assumption.
type Kind int

const (
	// Unknown means no write of the variable has been seen. It is never
	// stored: a variable missing from the map is Unknown.
	Unknown Kind = iota
	// Top means the variable may hold different values.
	Top
	// Constant means the variable holds Value on every path.
	Constant
)

func (k Kind) String() string {
	switch k {
	case Top:
		return "T"
	case Constant:
		return "constant"
	}
	return "unknown"
}

// Value is the lattice value of one variable.
type Value struct {
	Kind    Kind
	Literal jast.Literal
}

// TopValue is the value of a variable with no single known constant.
var TopValue = Value{Kind: Top}

// ConstantValue returns the value for a variable known to hold lit.
func ConstantValue(lit jast.Literal) Value {
	return Value{Kind: Constant, Literal: lit}
}

func (v Value) equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	return v.Kind != Constant || jast.SameLiteral(v.Literal, o.Literal)
}

func (v Value) join(o Value) Value {
	switch {
	case v.Kind == Unknown:
		return o
	case o.Kind == Unknown:
		return v
	case v.equal(o):
		return v
	}
	return TopValue
}

// Assumption maps variables to their values. A nil *Assumption is bottom.
// An Assumption is never modified after it leaves its updater.
type Assumption struct {
	values map[*jast.Variable]Value
}

// Empty is the assumption with every variable Unknown.
var Empty = &Assumption{}

// Get returns the value of v.
func (a *Assumption) Get(v *jast.Variable) Value {
	if a == nil {
		return Value{}
	}
	return a.values[v]
}

// Lookup returns the literal v is known to hold.
func (a *Assumption) Lookup(v *jast.Variable) (jast.Literal, bool) {
	val := a.Get(v)
	if val.Kind != Constant {
		return nil, false
	}
	return val.Literal, true
}

func (a *Assumption) Join(other *Assumption) *Assumption {
	if a == nil {
		return other
	}
	if other == nil || a == other {
		return a
	}
	u := newUpdater(a)
	for v, ov := range other.values {
		u.set(v, a.values[v].join(ov))
	}
	return u.unwrap()
}

func (a *Assumption) Equal(other *Assumption) bool {
	if a == nil || other == nil {
		return a == other
	}
	if len(a.values) != len(other.values) {
		return false
	}
	for v, val := range a.values {
		ov, ok := other.values[v]
		if !ok || !val.equal(ov) {
			return false
		}
	}
	return true
}

// String renders the assumption as {i = 1, j = T}, sorted by name.
func (a *Assumption) String() string {
	if a == nil {
		return "⊥"
	}
	vars := make([]*jast.Variable, 0, len(a.values))
	for v := range a.values {
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
		val := a.values[v]
		if val.Kind == Constant {
			sb.WriteString(jast.ToSource(val.Literal))
		} else {
			sb.WriteString("T")
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// updater copies the original map on the first real change.
type updater struct {
	orig   *Assumption
	values map[*jast.Variable]Value
}

func newUpdater(a *Assumption) *updater {
	return &updater{orig: a}
}

func (u *updater) set(v *jast.Variable, val Value) {
	if u.values == nil {
		cur, ok := u.orig.values[v]
		if (ok && cur.equal(val)) || (!ok && val.Kind == Unknown) {
			return
		}
		u.values = make(map[*jast.Variable]Value, len(u.orig.values)+1)
		for k, x := range u.orig.values {
			u.values[k] = x
		}
	}
	if val.Kind == Unknown {
		delete(u.values, v)
		return
	}
	u.values[v] = val
}

func (u *updater) unwrap() *Assumption {
	if u.values == nil {
		return u.orig
	}
	return &Assumption{values: u.values}
}
