package copyprop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/jast"
)

func TestFlowFunction(t *testing.T) {
	prog := jast.NewProgram()
	i := prog.NewVariable("i", jast.TypeInt, jast.LocalVar)
	j := prog.NewVariable("j", jast.TypeInt, jast.LocalVar)
	k := prog.NewVariable("k", jast.TypeInt, jast.LocalVar)
	l := prog.NewVariable("l", jast.TypeLong, jast.LocalVar)

	write := func(v *jast.Variable, value jast.Expr) *cfg.Node {
		return &cfg.Node{Kind: cfg.KindWrite, Var: v, Value: value}
	}
	ff := flowFunction{}

	a := ff.Interpret(write(i, &jast.IntLiteral{Value: 1}), Empty)
	assert.Equal(t, "{i = T}", a.String())

	a = ff.Interpret(write(j, jast.Ref(i)), a)
	assert.Equal(t, "{i = T, j = i}", a.String())

	// k sees through j to i.
	a = ff.Interpret(write(k, jast.Ref(j)), a)
	assert.Equal(t, "{i = T, j = i, k = i}", a.String())

	// Writing i kills both copies of it.
	killed := ff.Interpret(write(i, &jast.IntLiteral{Value: 2}), a)
	assert.Equal(t, "{i = T, j = T, k = T}", killed.String())
	assert.Equal(t, "{i = T, j = i, k = i}", a.String())

	// A read-write kills too.
	rw := ff.Interpret(&cfg.Node{Kind: cfg.KindReadWrite, Var: j}, a)
	assert.Equal(t, "{i = T, j = T, k = i}", rw.String())

	// Copies between different types are not recorded.
	widened := ff.Interpret(write(l, jast.Ref(i)), a)
	assert.Equal(t, "{i = T, j = i, k = i, l = T}", widened.String())

	// i = k where k is a copy of i records nothing.
	self := ff.Interpret(write(i, jast.Ref(k)), a)
	assert.Nil(t, self.Original(i))

	assert.Nil(t, ff.Interpret(write(i, nil), nil))
	assert.Same(t, a, ff.Interpret(&cfg.Node{Kind: cfg.KindRead, Var: i}, a))
}

func TestLattice(t *testing.T) {
	prog := jast.NewProgram()
	i := prog.NewVariable("i", jast.TypeInt, jast.LocalVar)
	j := prog.NewVariable("j", jast.TypeInt, jast.LocalVar)
	k := prog.NewVariable("k", jast.TypeInt, jast.LocalVar)

	rec := func(pairs ...*jast.Variable) *Assumption {
		u := newUpdater(Empty)
		for n := 0; n < len(pairs); n += 2 {
			u.set(pairs[n], pairs[n+1])
		}
		return u.unwrap()
	}

	samples := []*Assumption{
		nil,
		Empty,
		rec(j, i),
		rec(j, i, k, i),
		rec(j, k),
		rec(i, nil, j, i),
	}
	for _, a := range samples {
		assert.True(t, a.Join(a).Equal(a), "idempotent %s", a)
		for _, b := range samples {
			assert.True(t, a.Join(b).Equal(b.Join(a)), "commutative %s %s", a, b)
		}
	}

	assert.Equal(t, "{j = T}", rec(j, i).Join(rec(j, k)).String())
	assert.Equal(t, "{j = i, k = T}", rec(j, i).Join(rec(j, i, k, i)).String())
	assert.Equal(t, "{i = T, j = i}", rec(j, i).Join(rec(i, nil, j, i)).String())
}

type fixedSolution struct{ in *Assumption }

func (s fixedSolution) In(*cfg.Node) *Assumption   { return s.in }
func (s fixedSolution) Edge(*cfg.Edge) *Assumption { return s.in }

func TestOriginalOutOfScope(t *testing.T) {
	prog := jast.NewProgram()
	i := prog.NewVariable("i", jast.TypeInt, jast.LocalVar)
	j := prog.NewVariable("j", jast.TypeInt, jast.LocalVar)
	k := prog.NewVariable("k", jast.TypeInt, jast.LocalVar)

	outer := &cfg.Scope{Vars: []*jast.Variable{j, k}}
	inner := &cfg.Scope{Parent: outer, Vars: []*jast.Variable{i}}
	ff := flowFunction{}

	// { int i = ...; j = i; }
	a := ff.Interpret(&cfg.Node{Kind: cfg.KindWrite, Var: j, Value: jast.Ref(i), Scope: inner}, Empty)
	assert.Equal(t, "{j = i}", a.String())

	// k = j after the block copies j, not the dead i.
	b := ff.Interpret(&cfg.Node{Kind: cfg.KindWrite, Var: k, Value: jast.Ref(j), Scope: outer}, a)
	assert.Same(t, j, b.Original(k))

	an := New()
	readJ := func(scope *cfg.Scope) *cfg.Node {
		return &cfg.Node{Kind: cfg.KindRead, Var: j, AST: jast.Ref(j), Scope: scope}
	}
	assert.NotNil(t, an.Transform(readJ(inner), fixedSolution{a}))
	assert.Nil(t, an.Transform(readJ(outer), fixedSolution{a}))

	readK := &cfg.Node{Kind: cfg.KindRead, Var: k, AST: jast.Ref(k), Scope: outer}
	assert.NotNil(t, an.Transform(readK, fixedSolution{b}))
}
