package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-gflow/pkg/frontend"
	"github.com/l3aro/go-gflow/pkg/jast"
)

func parseSnippet(t *testing.T, returnType, params, body string) (*jast.Program, *jast.Method) {
	t.Helper()
	prog, m, err := frontend.ParseSnippet(context.Background(), returnType, params, body)
	require.NoError(t, err)
	require.NotNil(t, m)
	return prog, m
}

func TestDeadCodeElimination(t *testing.T) {
	tests := []struct {
		name       string
		returnType string
		params     string
		body       string
		want       string
	}{
		{
			name:       "folds constant expressions",
			returnType: "int",
			body:       "int x = 2 * 3 + 1; return x;",
			want:       "{\n  int x = 7;\n  return x;\n}",
		},
		{
			name:       "if true keeps then branch",
			returnType: "int",
			body:       "if (true) { foo(); } else { bar(); } return 1;",
			want:       "{\n  foo();\n  return 1;\n}",
		},
		{
			name:       "if false without else",
			returnType: "int",
			body:       "if (false) { foo(); } return 1;",
			want:       "{\n  return 1;\n}",
		},
		{
			name:       "short circuit with literal operands",
			returnType: "boolean",
			params:     "boolean b",
			body:       "return (b || false) && true;",
			want:       "{\n  return b;\n}",
		},
		{
			name:       "conditional on literal",
			returnType: "int",
			params:     "int p",
			body:       "return false ? p : p + 1;",
			want:       "{\n  return p + 1;\n}",
		},
		{
			name:       "while false and do while false",
			returnType: "int",
			body:       "while (false) { foo(); } do { bar(); } while (false); return 1;",
			want:       "{\n  bar();\n  return 1;\n}",
		},
		{
			name:       "for with false condition",
			returnType: "int",
			body:       "for (int i = 0; false; i++) { foo(); } return 0;",
			want:       "{\n  return 0;\n}",
		},
		{
			name:       "unused declarations",
			returnType: "int",
			body:       "int x = 1; int y = foo(); int z; return 0;",
			want:       "{\n  foo();\n  return 0;\n}",
		},
		{
			name:       "code after return",
			returnType: "int",
			body:       "return 1; foo();",
			want:       "{\n  return 1;\n}",
		},
		{
			name:       "unused label",
			returnType: "void",
			params:     "boolean b",
			body:       "outer: while (b) { foo(); } return;",
			want:       "{\n  while (b) {\n    foo();\n  }\n  return;\n}",
		},
		{
			name:       "try with empty body",
			returnType: "void",
			body:       "try { } finally { foo(); }",
			want:       "{\n  foo();\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := parseSnippet(t, tt.returnType, tt.params, tt.body)
			changed := NewDeadCodeElimination().ExecMethod(context.Background(), m)
			assert.True(t, changed)
			assert.Equal(t, tt.want, jast.ToSource(m.Body))
		})
	}
}

func TestDeadCodeEliminationKeeps(t *testing.T) {
	tests := []struct {
		name       string
		returnType string
		params     string
		body       string
	}{
		{
			name:       "do while false that breaks",
			returnType: "void",
			params:     "boolean b",
			body:       "do { if (b) { break; } foo(); } while (false);",
		},
		{
			name:       "used label",
			returnType: "void",
			params:     "boolean b",
			body:       "outer: while (b) { while (b) { break outer; } }",
		},
		{
			name:       "declaration in nested block",
			returnType: "int",
			params:     "int p",
			body:       "{ int y = p; foo(y); } return p;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := parseSnippet(t, tt.returnType, tt.params, tt.body)
			before := jast.ToSource(m.Body)
			assert.False(t, NewDeadCodeElimination().ExecMethod(context.Background(), m))
			assert.Equal(t, before, jast.ToSource(m.Body))
		})
	}
}

func TestDeadCodeEliminationSideEffectFreeStatements(t *testing.T) {
	_, m := parseSnippet(t, "int", "int p", "foo(); return p;")
	pure := &jast.ExpressionStatement{Expr: &jast.BinaryOperation{
		Op:    jast.OpAdd,
		Left:  jast.Ref(m.Params[0]),
		Right: &jast.IntLiteral{Value: 1},
	}}
	m.Body.Stmts = append([]jast.Stmt{pure, &jast.EmptyStatement{}, &jast.Block{}}, m.Body.Stmts...)

	assert.True(t, NewDeadCodeElimination().ExecMethod(context.Background(), m))
	assert.Equal(t, "{\n  foo();\n  return p;\n}", jast.ToSource(m.Body))
}

func TestDeadCodeEliminationExec(t *testing.T) {
	prog, m := parseSnippet(t, "int", "", "if (false) { foo(); } return 1;")
	prog.AddMethod(&jast.Method{Name: "external", ReturnType: jast.TypeVoid})

	changed, err := NewDeadCodeElimination().Exec(context.Background(), prog)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "{\n  return 1;\n}", jast.ToSource(m.Body))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	changed, err = NewDeadCodeElimination().Exec(ctx, prog)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, changed)
}

func TestJumpsOut(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "plain", body: "{ foo(); }", want: false},
		{name: "break", body: "{ break; }", want: true},
		{name: "continue", body: "{ continue; }", want: true},
		{name: "break inner loop", body: "{ while (true) { break; } }", want: false},
		{name: "labeled break", body: "{ while (true) { break outer; } }", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := parseSnippet(t, "void", "", "outer: do "+tt.body+" while (true);")
			loop := m.Body.Stmts[0].(*jast.LabeledStatement).Body.(*jast.DoStatement)
			assert.Equal(t, tt.want, jumpsOut(loop.Body))
		})
	}
}
