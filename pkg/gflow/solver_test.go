package gflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-gflow/pkg/cfg"
	"github.com/l3aro/go-gflow/pkg/frontend"
	"github.com/l3aro/go-gflow/pkg/gflow"
	"github.com/l3aro/go-gflow/pkg/gflow/constants"
	"github.com/l3aro/go-gflow/pkg/gflow/copyprop"
	"github.com/l3aro/go-gflow/pkg/gflow/liveness"
	"github.com/l3aro/go-gflow/pkg/gflow/unreachable"
	"github.com/l3aro/go-gflow/pkg/jast"
)

func graph(t *testing.T, returnType, params, body string) *cfg.Graph {
	t.Helper()
	prog, m, err := frontend.ParseSnippet(context.Background(), returnType, params, body)
	require.NoError(t, err)
	return cfg.Build(prog, m)
}

// node returns the last node whose debug string is label.
func node(t *testing.T, g *cfg.Graph, label string) *cfg.Node {
	t.Helper()
	var found *cfg.Node
	for _, n := range g.Nodes {
		if n.String() == label {
			found = n
		}
	}
	require.NotNil(t, found, "no node %s", label)
	return found
}

func TestCopyKill(t *testing.T) {
	g := graph(t, "void", "", "int i = 1; int j = i; i = 2;")
	edges := gflow.Solve[*copyprop.Assumption](g, copyprop.New(), true)

	w := node(t, g, "WRITE(i, 2)")
	require.Len(t, w.Out, 1)
	assert.Equal(t, "{i = T, j = T}", edges[w.Out[0]].String())

	before := node(t, g, "WRITE(j, i)")
	assert.Equal(t, "{i = T, j = i}", edges[before.Out[0]].String())
}

func TestConstantFolding(t *testing.T) {
	g := graph(t, "boolean", "", "int i = 1; return i == 1;")
	a := constants.New()
	edges := gflow.Solve[*constants.Assumption](g, a, true)

	ret := node(t, g, "RETURN")
	in := gflow.In[*constants.Assumption](g, a, edges, true, ret)
	expr := ret.AST.(*jast.ReturnStatement).Expr

	lit, ok := constants.Evaluate(expr, in.Lookup)
	require.True(t, ok)
	assert.Equal(t, &jast.BooleanLiteral{Value: true}, lit)
}

func TestConditionalForkJoin(t *testing.T) {
	g := graph(t, "void", "boolean b", "int i = 1; int j = i; if (b) { j = 1; } int k = j;")
	a := copyprop.New()
	edges := gflow.Solve[*copyprop.Assumption](g, a, true)

	cond := node(t, g, "COND (b)")
	require.Len(t, cond.Out, 2)
	assert.Equal(t, "{i = T, j = i}", edges[cond.Out[0]].String())
	assert.Equal(t, "{i = T, j = i}", edges[cond.Out[1]].String())

	k := node(t, g, "WRITE(k, j)")
	assert.Equal(t, "{i = T, j = T}", gflow.In[*copyprop.Assumption](g, a, edges, true, k).String())
	assert.Equal(t, "{i = T, j = T, k = j}", edges[k.Out[0]].String())
}

func TestLoopConverges(t *testing.T) {
	g := graph(t, "int", "", "int s = 0; for (int i = 0; i < 10; i++) { s = s + i; } return s;")
	a := constants.New()
	edges := gflow.Solve[*constants.Assumption](g, a, true)

	ret := node(t, g, "RETURN")
	in := gflow.In[*constants.Assumption](g, a, edges, true, ret)
	assert.Equal(t, "{i = T, s = T}", in.String())

	assert.Panics(t, func() {
		gflow.Solve[*constants.Assumption](g, a, true, gflow.WithMaxSteps(3))
	})
}

func TestPrintAssumptions(t *testing.T) {
	g := graph(t, "boolean", "", "int i = 1; return i == 1;")

	forward := gflow.Solve[*constants.Assumption](g, constants.New(), true)
	assert.Equal(t, `0: ENTRY -> [1 {}]
1: BLOCK -> [2 {}]
2: STMT -> [3 {}]
3: WRITE(i, 1) -> [4 {i = 1}]
4: STMT -> [5 {i = 1}]
5: READ(i) -> [6 {i = 1}]
6: RETURN -> [7 {i = 1}]
7: EXIT
`, gflow.PrintAssumptions(g, forward))

	backward := gflow.Solve[*liveness.Assumption](g, liveness.New(), false)
	assert.Equal(t, `0: ENTRY -> [1 {}]
1: BLOCK -> [2 {}]
2: STMT -> [3 {}]
3: WRITE(i, 1) -> [4 {i}]
4: STMT -> [5 {i}]
5: READ(i) -> [6 {}]
6: RETURN -> [7 {}]
7: EXIT
`, gflow.PrintAssumptions(g, backward))
}

func TestPrintUnreachableAsBottom(t *testing.T) {
	g := graph(t, "void", "", "return; foo();")
	edges := gflow.Solve[*unreachable.Assumption](g, unreachable.New(), true)
	assert.Equal(t, `0: ENTRY -> [1 REACHABLE]
1: BLOCK -> [2 REACHABLE]
2: STMT -> [3 REACHABLE]
3: RETURN -> [6 REACHABLE]
4: STMT -> [5 ⊥]
5: CALL(foo) -> [6 ⊥, E=6 ⊥]
6: EXIT
`, gflow.PrintAssumptions(g, edges))
}

func TestSolveIntegrated(t *testing.T) {
	tests := []struct {
		name     string
		ret      string
		params   string
		body     string
		analysis func(g *cfg.Graph) bool
		want     string
	}{
		{
			name: "constants replace reads",
			ret:  "boolean",
			body: "int i = 1; return i == 1;",
			analysis: func(g *cfg.Graph) bool {
				_, changed := gflow.SolveIntegrated[*constants.Assumption](g, constants.New(), true)
				return changed
			},
			want: "{\n  int i = 1;\n  return 1 == 1;\n}",
		},
		{
			name:   "copies read the original",
			ret:    "int",
			params: "int p",
			body:   "int j = p; int k = j; return k;",
			analysis: func(g *cfg.Graph) bool {
				_, changed := gflow.SolveIntegrated[*copyprop.Assumption](g, copyprop.New(), true)
				return changed
			},
			want: "{\n  int j = p;\n  int k = p;\n  return p;\n}",
		},
		{
			name: "dead initializer",
			ret:  "int",
			body: "int i = 1; i = 2; return i;",
			analysis: func(g *cfg.Graph) bool {
				_, changed := gflow.SolveIntegrated[*liveness.Assumption](g, liveness.New(), false)
				return changed
			},
			want: "{\n  int i;\n  i = 2;\n  return i;\n}",
		},
		{
			name: "dead increment",
			ret:  "int",
			body: "int x = 0; x++; return 1;",
			analysis: func(g *cfg.Graph) bool {
				_, changed := gflow.SolveIntegrated[*liveness.Assumption](g, liveness.New(), false)
				return changed
			},
			want: "{\n  int x = 0;\n  return 1;\n}",
		},
		{
			name: "code after return",
			ret:  "int",
			body: "int i = 0; return i; i = 2;",
			analysis: func(g *cfg.Graph) bool {
				_, changed := gflow.SolveIntegrated[*unreachable.Assumption](g, unreachable.New(), true)
				return changed
			},
			want: "{\n  int i = 0;\n  return i;\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph(t, tt.ret, tt.params, tt.body)
			assert.True(t, tt.analysis(g))
			assert.Equal(t, tt.want, jast.ToSource(g.Method.Body))
		})
	}
}

func TestSolveIntegratedNoChange(t *testing.T) {
	g := graph(t, "int", "int p", "return p + 1;")
	_, changed := gflow.SolveIntegrated[*constants.Assumption](g, constants.New(), true)
	assert.False(t, changed)
	assert.Equal(t, "{\n  return p + 1;\n}", jast.ToSource(g.Method.Body))
}

func combined() *gflow.CombinedIntegratedAnalysis {
	return gflow.NewCombined(
		gflow.Integrate[*unreachable.Assumption]("unreachable", unreachable.New()),
		gflow.Integrate[*constants.Assumption]("constants", constants.New()),
		gflow.Integrate[*copyprop.Assumption]("copy", copyprop.New()),
	)
}

func TestCombinedFirstTransformationWins(t *testing.T) {
	g := graph(t, "int", "int p", "int i = 1; int j = i; int k = p; return j + k;")
	c := combined()
	edges, changed := gflow.SolveIntegrated[*gflow.CombinedAssumption](g, c, true)
	require.True(t, changed)
	assert.Equal(t, "{\n  int i = 1;\n  int j = 1;\n  int k = p;\n  return 1 + p;\n}", jast.ToSource(g.Method.Body))

	exit := g.Exit
	require.NotEmpty(t, exit.In)
	last := edges[exit.In[0]]
	require.NotNil(t, last)
	assert.Equal(t, "{i = 1, j = 1, k = T, p = T}", last.Part(c.Index("constants")).(*constants.Assumption).String())
	assert.Equal(t, "{i = T, j = i, k = p}", last.Part(c.Index("copy")).(*copyprop.Assumption).String())
	assert.Equal(t, -1, c.Index("liveness"))
}

func TestCombinedBottomAndString(t *testing.T) {
	g := graph(t, "void", "", "return; foo();")
	c := combined()
	edges := gflow.Solve[*gflow.CombinedAssumption](g, c, true)

	call := node(t, g, "CALL(foo)")
	for _, e := range call.Out {
		assert.Nil(t, edges[e])
	}
	ret := node(t, g, "RETURN")
	assert.Equal(t, "(unreachable: REACHABLE; constants: {}; copy: {})", edges[ret.Out[0]].String())
}

func TestCombinedJoinRejectsForeignTuples(t *testing.T) {
	g := graph(t, "void", "", "int i = 1;")
	a := combined().Initial(g)
	b := combined().Initial(g)
	assert.Panics(t, func() { a.Join(b) })
	assert.Same(t, a, a.Join(nil))
	assert.True(t, gflow.IsBottom[*gflow.CombinedAssumption](nil))
}
