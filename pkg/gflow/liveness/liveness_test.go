package liveness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/willf/bitset"

	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/jast"
)

func TestFlowFunction(t *testing.T) {
	prog := jast.NewProgram()
	i := prog.NewVariable("i", jast.TypeInt, jast.LocalVar)
	j := prog.NewVariable("j", jast.TypeInt, jast.LocalVar)
	vars := map[uint]*jast.Variable{0: i, 1: j}
	empty := &Assumption{live: bitset.New(2), vars: vars}
	ff := flowFunction{}

	a := ff.Interpret(&cfg.Node{Kind: cfg.KindRead, Var: j}, empty)
	assert.Equal(t, "{j}", a.String())
	assert.Equal(t, "{}", empty.String())

	a = ff.Interpret(&cfg.Node{Kind: cfg.KindReadWrite, Var: i}, a)
	assert.Equal(t, "{i, j}", a.String())
	assert.Equal(t, 2, a.Len())

	a = ff.Interpret(&cfg.Node{Kind: cfg.KindWrite, Var: j}, a)
	assert.Equal(t, "{i}", a.String())
	assert.True(t, a.Live(i))
	assert.False(t, a.Live(j))

	assert.Same(t, a, ff.Interpret(&cfg.Node{Kind: cfg.KindStatement}, a))
	assert.Nil(t, ff.Interpret(&cfg.Node{Kind: cfg.KindRead, Var: i}, nil))
}

func TestLattice(t *testing.T) {
	prog := jast.NewProgram()
	var all []*jast.Variable
	vars := make(map[uint]*jast.Variable)
	for _, name := range []string{"a", "b", "c"} {
		v := prog.NewVariable(name, jast.TypeInt, jast.LocalVar)
		vars[uint(v.ID)] = v
		all = append(all, v)
	}
	set := func(vs ...*jast.Variable) *Assumption {
		a := &Assumption{live: bitset.New(0), vars: vars}
		for _, v := range vs {
			a = a.with(v, true)
		}
		return a
	}

	samples := []*Assumption{nil, set(), set(all[0]), set(all[1], all[2]), set(all...)}
	for _, x := range samples {
		assert.True(t, x.Join(x).Equal(x), "idempotent %s", x)
		for _, y := range samples {
			assert.True(t, x.Join(y).Equal(y.Join(x)), "commutative %s %s", x, y)
		}
	}
	assert.Equal(t, "{a, b, c}", set(all[0]).Join(set(all[1], all[2])).String())

	// Sets of different capacity with the same members are equal.
	wide := &Assumption{live: bitset.New(64).Set(0), vars: vars}
	assert.True(t, wide.Equal(set(all[0])))
}
