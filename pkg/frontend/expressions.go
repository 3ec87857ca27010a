package frontend

import (
	"fmt"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-gflow/pkg/jast"
)

func (p *javaParser) expr(n *sitter.Node) (jast.Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: missing expression", ErrUnsupported)
	}
	switch n.Type() {
	case "parenthesized_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); !isComment(c) {
				return p.expr(c)
			}
		}
		return nil, p.unsupported(n)

	case "identifier":
		name := p.nodeText(n)
		if v := p.lookup(name); v != nil {
			return jast.Ref(v), nil
		}
		return &jast.NameRef{Name: name}, nil
	case "this":
		return &jast.NameRef{Name: "this"}, nil

	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		lit, err := parseIntLiteral(p.nodeText(n))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.StartPoint().Row+1, err)
		}
		return lit, nil
	case "character_literal":
		c, err := unquoteChar(p.nodeText(n))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.StartPoint().Row+1, err)
		}
		return &jast.CharLiteral{Value: c}, nil
	case "string_literal":
		s, err := strconv.Unquote(p.nodeText(n))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad string literal: %w", n.StartPoint().Row+1, err)
		}
		return &jast.StringLiteral{Value: s}, nil
	case "true":
		return &jast.BooleanLiteral{Value: true}, nil
	case "false":
		return &jast.BooleanLiteral{Value: false}, nil
	case "null_literal":
		return &jast.NullLiteral{}, nil

	case "binary_expression":
		return p.binary(n, n.ChildByFieldName("operator"))
	case "assignment_expression":
		return p.assignment(n)
	case "unary_expression":
		return p.unary(n)
	case "update_expression":
		return p.update(n)
	case "ternary_expression":
		return p.ternary(n)
	case "method_invocation":
		return p.call(n)
	case "object_creation_expression":
		return p.newInstance(n)
	case "field_access":
		obj, err := p.expr(n.ChildByFieldName("object"))
		if err != nil {
			return nil, err
		}
		return &jast.FieldRef{Instance: obj, Name: p.nodeText(n.ChildByFieldName("field"))}, nil
	}
	return nil, p.unsupported(n)
}

func (p *javaParser) binary(n, opNode *sitter.Node) (jast.Expr, error) {
	if opNode == nil {
		return nil, p.unsupported(n)
	}
	op, ok := jast.BinaryOpFromSymbol(opNode.Type())
	if !ok || op.IsAssignment() {
		return nil, p.unsupported(opNode)
	}
	left, err := p.expr(n.ChildByFieldName("left"))
	if err != nil {
		return nil, err
	}
	right, err := p.expr(n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}
	return &jast.BinaryOperation{Op: op, Left: left, Right: right}, nil
}

func (p *javaParser) assignment(n *sitter.Node) (jast.Expr, error) {
	opNode := n.ChildByFieldName("operator")
	if opNode == nil {
		return nil, p.unsupported(n)
	}
	op, ok := jast.BinaryOpFromSymbol(opNode.Type())
	if !ok || !op.IsAssignment() {
		return nil, p.unsupported(opNode)
	}
	left, err := p.lvalue(n.ChildByFieldName("left"))
	if err != nil {
		return nil, err
	}
	right, err := p.expr(n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}
	return &jast.BinaryOperation{Op: op, Left: left, Right: right}, nil
}

// lvalue accepts locals and field accesses as assignment targets.
func (p *javaParser) lvalue(n *sitter.Node) (jast.Expr, error) {
	e, err := p.expr(n)
	if err != nil {
		return nil, err
	}
	switch e.(type) {
	case *jast.VariableRef, *jast.FieldRef, *jast.NameRef:
		return e, nil
	}
	return nil, p.unsupported(n)
}

func (p *javaParser) unary(n *sitter.Node) (jast.Expr, error) {
	opNode := n.ChildByFieldName("operator")
	if opNode == nil {
		return nil, p.unsupported(n)
	}
	op, ok := jast.UnaryOpFromSymbol(opNode.Type())
	if !ok {
		return nil, p.unsupported(opNode)
	}
	arg, err := p.expr(n.ChildByFieldName("operand"))
	if err != nil {
		return nil, err
	}
	// Fold the sign into integer literals so -2147483648 stays representable.
	if op == jast.OpNeg {
		switch lit := arg.(type) {
		case *jast.IntLiteral:
			return &jast.IntLiteral{Value: -lit.Value}, nil
		case *jast.LongLiteral:
			return &jast.LongLiteral{Value: -lit.Value}, nil
		}
	}
	return &jast.PrefixOperation{Op: op, Arg: arg}, nil
}

// update handles ++ and --; the grammar gives no field names, so the
// position of the operator token decides prefix or postfix.
func (p *javaParser) update(n *sitter.Node) (jast.Expr, error) {
	if n.ChildCount() != 2 {
		return nil, p.unsupported(n)
	}
	first, second := n.Child(0), n.Child(1)
	prefix := !first.IsNamed()
	opNode, argNode := second, first
	if prefix {
		opNode, argNode = first, second
	}
	op, ok := jast.UnaryOpFromSymbol(opNode.Type())
	if !ok || !op.IsModifying() {
		return nil, p.unsupported(opNode)
	}
	arg, err := p.lvalue(argNode)
	if err != nil {
		return nil, err
	}
	if prefix {
		return &jast.PrefixOperation{Op: op, Arg: arg}, nil
	}
	return &jast.PostfixOperation{Op: op, Arg: arg}, nil
}

func (p *javaParser) ternary(n *sitter.Node) (jast.Expr, error) {
	cond, err := p.expr(n.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	then, err := p.expr(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	els, err := p.expr(n.ChildByFieldName("alternative"))
	if err != nil {
		return nil, err
	}
	return &jast.ConditionalExpr{Cond: cond, Then: then, Else: els}, nil
}

func (p *javaParser) arguments(n *sitter.Node) ([]jast.Expr, error) {
	if n == nil {
		return nil, nil
	}
	var args []jast.Expr
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if isComment(c) {
			continue
		}
		a, err := p.expr(c)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func (p *javaParser) call(n *sitter.Node) (jast.Expr, error) {
	call := &jast.MethodCall{
		Name:    p.nodeText(n.ChildByFieldName("name")),
		RetType: jast.TypeUnknown,
	}
	if obj := n.ChildByFieldName("object"); obj != nil {
		inst, err := p.expr(obj)
		if err != nil {
			return nil, err
		}
		call.Instance = inst
	}
	args, err := p.arguments(n.ChildByFieldName("arguments"))
	if err != nil {
		return nil, err
	}
	call.Args = args
	if call.Instance == nil {
		call.Target = p.resolve(call.Name, len(args))
		if call.Target != nil {
			call.RetType = call.Target.ReturnType
		}
	}
	return call, nil
}

func (p *javaParser) resolve(name string, arity int) *jast.Method {
	for _, m := range p.prog.Methods {
		if m.Name == name && len(m.Params) == arity {
			return m
		}
	}
	return nil
}

func (p *javaParser) newInstance(n *sitter.Node) (jast.Expr, error) {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return nil, p.unsupported(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "class_body" {
			return nil, p.unsupported(n)
		}
	}
	args, err := p.arguments(n.ChildByFieldName("arguments"))
	if err != nil {
		return nil, err
	}
	return &jast.NewInstance{Class: p.nodeText(typ), Args: args}, nil
}
