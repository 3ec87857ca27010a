package jast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBody(p *Program) (*Block, *Variable) {
	i := p.NewVariable("i", TypeInt, LocalVar)
	return &Block{Stmts: []Stmt{
		&DeclarationStatement{Var: i, Init: &IntLiteral{Value: 1}},
		&ReturnStatement{Expr: &BinaryOperation{Op: OpEq, Left: Ref(i), Right: &IntLiteral{Value: 1}}},
	}}, i
}

func TestAddNodeRejectsDuplicate(t *testing.T) {
	body, _ := newTestBody(NewProgram())
	existing := body.Stmts[0]

	assert.Panics(t, func() {
		NewAddNode(body, &body.Stmts, -1, existing)
	})

	cl := NewChangeList("test")
	assert.Panics(t, func() {
		cl.Add(body, &body.Stmts, 0, existing)
	})
	assert.True(t, cl.Empty())
}

func TestAddNodeIndexRange(t *testing.T) {
	body, _ := newTestBody(NewProgram())
	assert.Panics(t, func() {
		NewAddNode(body, &body.Stmts, 5, &EmptyStatement{})
	})
	assert.Panics(t, func() {
		NewAddNode(body, &body.Stmts, -2, &EmptyStatement{})
	})
}

func TestAddNodeInsertAndAppend(t *testing.T) {
	body, _ := newTestBody(NewProgram())
	first := &ExpressionStatement{Expr: &MethodCall{Name: "a", RetType: TypeVoid}}
	last := &ExpressionStatement{Expr: &MethodCall{Name: "z", RetType: TypeVoid}}

	cl := NewChangeList("insert")
	cl.Add(body, &body.Stmts, 0, first)
	cl.Add(body, &body.Stmts, -1, last)
	require.Equal(t, 2, cl.Len())
	cl.Apply(body)

	require.Len(t, body.Stmts, 4)
	assert.Same(t, first, body.Stmts[0])
	assert.Same(t, last, body.Stmts[3])
}

func TestChangeAppliedOnce(t *testing.T) {
	body, _ := newTestBody(NewProgram())
	add := NewAddNode(body, &body.Stmts, -1, &EmptyStatement{})
	add.Apply(body)
	assert.Panics(t, func() { add.Apply(body) })
}

func TestRemoveNode(t *testing.T) {
	t.Run("from statement list", func(t *testing.T) {
		body, _ := newTestBody(NewProgram())
		decl := body.Stmts[0]
		cl := NewChangeList("remove")
		cl.Remove(decl)
		cl.Apply(body)
		require.Len(t, body.Stmts, 1)
		assert.IsType(t, &ReturnStatement{}, body.Stmts[0])
	})

	t.Run("from single statement slot", func(t *testing.T) {
		call := &ExpressionStatement{Expr: &MethodCall{Name: "f", RetType: TypeVoid}}
		ifStmt := &IfStatement{Cond: &BooleanLiteral{Value: true}, Then: call}
		body := &Block{Stmts: []Stmt{ifStmt}}
		cl := NewChangeList("remove")
		cl.Remove(call)
		cl.Apply(body)
		assert.Equal(t, &Block{}, ifStmt.Then)
	})

	t.Run("missing node", func(t *testing.T) {
		body, _ := newTestBody(NewProgram())
		cl := NewChangeList("remove")
		cl.Remove(&EmptyStatement{})
		assert.Panics(t, func() { cl.Apply(body) })
	})
}

func TestReplaceNodeByIdentity(t *testing.T) {
	body, i := newTestBody(NewProgram())
	ret := body.Stmts[1].(*ReturnStatement)
	read := ret.Expr.(*BinaryOperation).Left

	cl := NewChangeList("replace")
	cl.Replace(read, &IntLiteral{Value: 1})
	cl.Apply(body)

	assert.Equal(t, "return 1 == 1;", ToSource(ret))
	// The declaration's own reference to i is untouched.
	assert.Equal(t, "int i = 1;", ToSource(body.Stmts[0]))
	assert.Equal(t, "i", i.Name)

	assert.Panics(t, func() { cl.Replace(read, read) })
}

func TestChangeListDescribe(t *testing.T) {
	body, _ := newTestBody(NewProgram())
	cl := NewChangeList("dce")
	cl.Remove(body.Stmts[0])
	cl.Add(body, &body.Stmts, -1, &EmptyStatement{})
	assert.Equal(t, "dce:\n  remove int i = 1;\n  append ; to *jast.Block", cl.Describe())
}
