package cfg

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-gflow/pkg/frontend"
	"github.com/l3aro/go-gflow/pkg/jast"
)

func build(t *testing.T, returnType, params, body string) *Graph {
	t.Helper()
	prog, m, err := frontend.ParseSnippet(context.Background(), returnType, params, body)
	require.NoError(t, err)
	return Build(prog, m)
}

func TestBuildGolden(t *testing.T) {
	tests := []struct {
		name       string
		returnType string
		params     string
		body       string
		want       string
	}{
		{
			name:       "straight line",
			returnType: "boolean",
			body:       "int i = 1; return i == 1;",
			want: `0: ENTRY -> [1]
1: BLOCK -> [2]
2: STMT -> [3]
3: WRITE(i, 1) -> [4]
4: STMT -> [5]
5: READ(i) -> [6]
6: RETURN -> [7]
7: EXIT
`,
		},
		{
			name:       "if without else",
			returnType: "int",
			params:     "boolean b",
			body:       "int i = 1; if (b) { i = 2; } return i;",
			want: `0: ENTRY -> [1]
1: BLOCK -> [2]
2: STMT -> [3]
3: WRITE(i, 1) -> [4]
4: STMT -> [5]
5: READ(b) -> [6]
6: COND (b) -> [THEN=7, ELSE=10]
7: BLOCK -> [8]
8: STMT -> [9]
9: WRITE(i, 2) -> [10]
10: STMT -> [11]
11: READ(i) -> [12]
12: RETURN -> [13]
13: EXIT
`,
		},
		{
			name:       "while loop",
			returnType: "void",
			body:       "int i = 0; while (i < 3) { i++; } return;",
			want: `0: ENTRY -> [1]
1: BLOCK -> [2]
2: STMT -> [3]
3: WRITE(i, 0) -> [4]
4: STMT -> [5]
5: READ(i) -> [6]
6: COND (i < 3) -> [THEN=7, ELSE=10]
7: BLOCK -> [8]
8: STMT -> [9]
9: READWRITE(i) -> [5]
10: STMT -> [11]
11: RETURN -> [12]
12: EXIT
`,
		},
		{
			name:       "try catch",
			returnType: "void",
			body:       "try { foo(); } catch (RuntimeException e) { return; }",
			want: `0: ENTRY -> [1]
1: BLOCK -> [2]
2: STMT -> [3]
3: TRY -> [4]
4: BLOCK -> [5]
5: STMT -> [6, E=7]
6: CALL(foo) -> [E=7, 11, E=11]
7: WRITE(e) -> [8]
8: BLOCK -> [9]
9: STMT -> [10]
10: RETURN -> [11]
11: EXIT
`,
		},
		{
			name:       "try finally",
			returnType: "int",
			body:       "try { return 1; } finally { foo(); }",
			want: `0: ENTRY -> [1]
1: BLOCK -> [2]
2: STMT -> [3]
3: TRY -> [4]
4: BLOCK -> [5]
5: STMT -> [6, E=7]
6: RETURN -> [7]
7: BLOCK -> [8]
8: STMT -> [9]
9: CALL(foo) -> [10, E=11]
10: END -> [11]
11: EXIT
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.returnType, tt.params, tt.body)
			assert.Equal(t, tt.want, Print(g))
		})
	}
}

func TestStraightLineSinglePath(t *testing.T) {
	g := build(t, "int", "int p", "int a = p; int b = a + 1; a = b * 2; return a;")

	var stmts []jast.Node
	n := g.Entry
	for n != g.Exit {
		require.Len(t, n.Out, 1, "node %s", n)
		if n.Kind == KindStatement {
			stmts = append(stmts, n.AST)
		}
		n = n.Out[0].To
	}
	require.Len(t, stmts, 4)
	for i, s := range stmts {
		assert.Same(t, g.Method.Body.Stmts[i], s)
	}
}

func TestCodeAfterReturnHasNoPredecessors(t *testing.T) {
	g := build(t, "void", "", "return; foo();")
	var dead *Node
	for _, n := range g.Nodes {
		if n.Kind == KindStatement && n.AST == g.Method.Body.Stmts[1] {
			dead = n
		}
	}
	require.NotNil(t, dead)
	assert.Empty(t, dead.In)
	assert.False(t, g.Reachable()[dead])
}

func TestLabeledContinueTargetsUpdate(t *testing.T) {
	g := build(t, "void", "", "outer: for (int i = 0; i < 3; i++) { while (true) { continue outer; } }")

	loop := g.Method.Body.Stmts[0].(*jast.LabeledStatement).Body.(*jast.ForStatement)
	var cont *Node
	for _, n := range g.Nodes {
		if _, ok := n.AST.(*jast.ContinueStatement); ok && n.Kind == KindGoto {
			cont = n
		}
	}
	require.NotNil(t, cont)
	require.Len(t, cont.Out, 1)
	assert.Same(t, loop.Update[0], cont.Out[0].To.AST)
	assert.Equal(t, "CONTINUE", cont.String())
}

func TestSwitchFallthrough(t *testing.T) {
	g := build(t, "int", "int p", `
    int r = 0;
    switch (p) {
      case 1:
        r = 1;
      case 2:
        r = 2;
        break;
      default:
        r = 3;
    }
    return r;`)

	var cases []*Node
	for _, n := range g.Nodes {
		if n.Kind == KindCase {
			cases = append(cases, n)
		}
	}
	require.Len(t, cases, 2)
	assert.Equal(t, "CASE (1)", cases[0].String())
	require.Len(t, cases[0].Out, 2)
	assert.Same(t, cases[1], cases[0].Out[0].To)
	assert.Equal(t, RoleElse, cases[0].Out[0].Role)
	assert.Equal(t, RoleThen, cases[0].Out[1].Role)

	// The write of r = 1 falls through into the statement r = 2.
	for _, n := range g.Nodes {
		if n.Kind == KindWrite && n.Value != nil && jast.ToSource(n.Value) == "1" {
			require.Len(t, n.Out, 1)
			assert.Equal(t, KindStatement, n.Out[0].To.Kind)
			assert.Equal(t, "r = 2;", jast.Summary(n.Out[0].To.AST))
		}
	}
}

func TestShortCircuit(t *testing.T) {
	g := build(t, "boolean", "boolean a, boolean b", "return a && b;")
	var cond *Node
	for _, n := range g.Nodes {
		if n.Kind == KindConditional {
			cond = n
		}
	}
	require.NotNil(t, cond)
	assert.Equal(t, "COND (a)", cond.String())
	require.Len(t, cond.Out, 2)
	assert.Equal(t, RoleThen, cond.Out[0].Role)
	assert.Equal(t, "READ(b)", cond.Out[0].To.String())
	assert.Equal(t, RoleElse, cond.Out[1].Role)
	assert.Equal(t, "RETURN", cond.Out[1].To.String())
}

func TestBuildPanics(t *testing.T) {
	prog := jast.NewProgram()
	assert.Panics(t, func() { Build(prog, &jast.Method{Name: "abstract"}) })
	assert.Panics(t, func() {
		Build(prog, &jast.Method{Name: "m", Body: &jast.Block{Stmts: []jast.Stmt{&jast.BreakStatement{}}}})
	})

	other := jast.NewProgram()
	v := other.NewVariable("x", jast.TypeInt, jast.LocalVar)
	assert.Panics(t, func() {
		Build(prog, &jast.Method{Name: "m", Body: &jast.Block{Stmts: []jast.Stmt{
			&jast.ExpressionStatement{Expr: jast.Ref(v)},
		}}})
	})
}

func TestCloneDetachesEdges(t *testing.T) {
	g := build(t, "boolean", "", "int i = 1; return i == 1;")
	w := g.Nodes[3]
	c := w.Clone()
	assert.Equal(t, -1, c.ID)
	assert.Empty(t, c.In)
	assert.Empty(t, c.Out)
	assert.Same(t, w.AST, c.AST)
	assert.Same(t, w.Parent, c.Parent)
	assert.Equal(t, w.String(), c.String())
	assert.Len(t, w.Out, 1)
}

func TestInfoAndDot(t *testing.T) {
	g := build(t, "int", "boolean b", "int i = 1; if (b) { i = 2; } return i;")
	info := NewInfo(g)
	assert.Equal(t, "onModuleLoad", info.MethodName)
	assert.Equal(t, 2, info.CyclomaticComplexity)
	assert.Equal(t, 0, info.EntryID)
	assert.Equal(t, 13, info.ExitID)
	assert.Equal(t, "if (b)", info.Nodes[4].Source)

	dot := Dot(g)
	assert.True(t, strings.HasPrefix(dot, "digraph \"onModuleLoad\" {"))
	assert.Contains(t, dot, "n6 -> n7 [label=\"THEN\"];")
}

func TestScopes(t *testing.T) {
	g := build(t, "int", "int p", "int j; { int i = p; j = i; } for (int k = 0; k < p; k++) { j += k; } return j;")

	vars := map[string]*jast.Variable{}
	for _, n := range g.Nodes {
		if n.Var != nil {
			vars[n.Var.Name] = n.Var
		}
	}
	require.Len(t, vars, 4)

	for _, n := range g.Nodes {
		if n.Kind != KindWrite && n.Kind != KindRead && n.Kind != KindReadWrite {
			continue
		}
		assert.True(t, n.Scope.Declares(n.Var), "%s sees its variable", n)
		assert.True(t, n.Scope.Declares(vars["p"]), "%s sees the parameter", n)
	}

	assert.True(t, g.Exit.Scope.Declares(vars["p"]))
	assert.False(t, g.Exit.Scope.Declares(vars["j"]))

	ret := g.Exit.Preds()[0]
	assert.True(t, ret.Scope.Declares(vars["j"]))
	assert.False(t, ret.Scope.Declares(vars["i"]))
	assert.False(t, ret.Scope.Declares(vars["k"]))
}
