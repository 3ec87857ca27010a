package frontend

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-gflow/pkg/jast"
)

func (p *javaParser) block(n *sitter.Node) (*jast.Block, error) {
	p.pushScope()
	defer p.popScope()
	b := &jast.Block{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		stmts, err := p.stmts(n.NamedChild(i))
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmts...)
	}
	return b, nil
}

// stmt translates a statement that stands alone in a branch or loop body.
func (p *javaParser) stmt(n *sitter.Node) (jast.Stmt, error) {
	stmts, err := p.stmts(n)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return &jast.Block{Stmts: stmts}, nil
}

// stmts translates one tree-sitter statement. Declarations with several
// declarators become several statements.
func (p *javaParser) stmts(n *sitter.Node) ([]jast.Stmt, error) {
	if isComment(n) {
		return nil, nil
	}
	var (
		s   jast.Stmt
		err error
	)
	switch n.Type() {
	case "block":
		s, err = p.block(n)
	case "local_variable_declaration":
		return p.declarations(n)
	case "expression_statement":
		var e jast.Expr
		if e, err = p.expr(n.NamedChild(0)); err == nil {
			s = &jast.ExpressionStatement{Expr: e}
		}
	case "if_statement":
		s, err = p.ifStatement(n)
	case "while_statement":
		s, err = p.whileStatement(n)
	case "do_statement":
		s, err = p.doStatement(n)
	case "for_statement":
		s, err = p.forStatement(n)
	case "break_statement":
		s = &jast.BreakStatement{Label: p.optionalLabel(n)}
	case "continue_statement":
		s = &jast.ContinueStatement{Label: p.optionalLabel(n)}
	case "labeled_statement":
		s, err = p.labeledStatement(n)
	case "return_statement":
		ret := &jast.ReturnStatement{}
		if n.NamedChildCount() > 0 {
			ret.Expr, err = p.expr(n.NamedChild(0))
		}
		s = ret
	case "throw_statement":
		var e jast.Expr
		if e, err = p.expr(n.NamedChild(0)); err == nil {
			s = &jast.ThrowStatement{Expr: e}
		}
	case "try_statement":
		s, err = p.tryStatement(n)
	case "switch_expression", "switch_statement":
		s, err = p.switchStatement(n)
	case "empty_statement", ";":
		s = &jast.EmptyStatement{}
	default:
		return nil, p.unsupported(n)
	}
	if err != nil {
		return nil, err
	}
	return []jast.Stmt{s}, nil
}

func (p *javaParser) declarations(n *sitter.Node) ([]jast.Stmt, error) {
	typ := jast.Type(p.nodeText(n.ChildByFieldName("type")))
	var out []jast.Stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		if dims := d.ChildByFieldName("dimensions"); dims != nil {
			return nil, p.unsupported(dims)
		}
		decl := &jast.DeclarationStatement{}
		if value := d.ChildByFieldName("value"); value != nil {
			init, err := p.expr(value)
			if err != nil {
				return nil, err
			}
			decl.Init = init
		}
		// The variable is in scope only after its own initializer.
		decl.Var = p.prog.NewVariable(p.nodeText(d.ChildByFieldName("name")), typ, jast.LocalVar)
		p.declare(decl.Var)
		out = append(out, decl)
	}
	return out, nil
}

func (p *javaParser) condition(n *sitter.Node) (jast.Expr, error) {
	c := n.ChildByFieldName("condition")
	if c == nil {
		return nil, p.unsupported(n)
	}
	return p.expr(c)
}

func (p *javaParser) ifStatement(n *sitter.Node) (jast.Stmt, error) {
	cond, err := p.condition(n)
	if err != nil {
		return nil, err
	}
	then, err := p.stmt(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	s := &jast.IfStatement{Cond: cond, Then: then}
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		if s.Else, err = p.stmt(alt); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *javaParser) whileStatement(n *sitter.Node) (jast.Stmt, error) {
	cond, err := p.condition(n)
	if err != nil {
		return nil, err
	}
	body, err := p.stmt(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return &jast.WhileStatement{Cond: cond, Body: body}, nil
}

func (p *javaParser) doStatement(n *sitter.Node) (jast.Stmt, error) {
	body, err := p.stmt(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	cond, err := p.condition(n)
	if err != nil {
		return nil, err
	}
	return &jast.DoStatement{Body: body, Cond: cond}, nil
}

// forStatement walks the raw children because init and update may repeat
// and tree-sitter only exposes the first node of a repeated field by name.
func (p *javaParser) forStatement(n *sitter.Node) (jast.Stmt, error) {
	p.pushScope()
	defer p.popScope()

	const (
		sectionInit = iota
		sectionCond
		sectionUpdate
		sectionBody
	)
	f := &jast.ForStatement{}
	section := sectionInit
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == ";":
			section++
			continue
		case c.Type() == ")":
			section = sectionBody
			continue
		case !c.IsNamed() || isComment(c):
			continue
		}

		switch section {
		case sectionInit:
			if c.Type() == "local_variable_declaration" {
				decls, err := p.declarations(c)
				if err != nil {
					return nil, err
				}
				f.Init = append(f.Init, decls...)
				section = sectionCond
				continue
			}
			e, err := p.expr(c)
			if err != nil {
				return nil, err
			}
			f.Init = append(f.Init, &jast.ExpressionStatement{Expr: e})
		case sectionCond:
			cond, err := p.expr(c)
			if err != nil {
				return nil, err
			}
			f.Cond = cond
		case sectionUpdate:
			e, err := p.expr(c)
			if err != nil {
				return nil, err
			}
			f.Update = append(f.Update, &jast.ExpressionStatement{Expr: e})
		default:
			body, err := p.stmt(c)
			if err != nil {
				return nil, err
			}
			f.Body = body
		}
	}
	if f.Body == nil {
		return nil, p.unsupported(n)
	}
	return f, nil
}

func (p *javaParser) optionalLabel(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "identifier" {
			return p.nodeText(c)
		}
	}
	return ""
}

func (p *javaParser) labeledStatement(n *sitter.Node) (jast.Stmt, error) {
	var label string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "identifier" && label == "" {
			label = p.nodeText(c)
			continue
		}
		if isComment(c) {
			continue
		}
		body, err := p.stmt(c)
		if err != nil {
			return nil, err
		}
		return &jast.LabeledStatement{Label: label, Body: body}, nil
	}
	return nil, p.unsupported(n)
}

func (p *javaParser) tryStatement(n *sitter.Node) (jast.Stmt, error) {
	t := &jast.TryStatement{}
	body, err := p.block(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	t.Body = body
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "catch_clause":
			cc, err := p.catchClause(c)
			if err != nil {
				return nil, err
			}
			t.Catches = append(t.Catches, cc)
		case "finally_clause":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if b := c.NamedChild(j); b.Type() == "block" {
					if t.Finally, err = p.block(b); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return t, nil
}

func (p *javaParser) catchClause(n *sitter.Node) (*jast.CatchClause, error) {
	p.pushScope()
	defer p.popScope()

	var param *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "catch_formal_parameter" {
			param = c
		}
	}
	if param == nil {
		return nil, p.unsupported(n)
	}
	typ, name := "", ""
	for i := 0; i < int(param.NamedChildCount()); i++ {
		c := param.NamedChild(i)
		switch c.Type() {
		case "catch_type":
			typ = p.nodeText(c)
		case "identifier":
			name = p.nodeText(c)
		}
	}
	v := p.prog.NewVariable(name, jast.Type(typ), jast.LocalVar)
	p.declare(v)
	body, err := p.block(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return &jast.CatchClause{Var: v, Body: body}, nil
}

func (p *javaParser) switchStatement(n *sitter.Node) (jast.Stmt, error) {
	cond, err := p.condition(n)
	if err != nil {
		return nil, err
	}
	s := &jast.SwitchStatement{Expr: cond}
	block := n.ChildByFieldName("body")
	if block == nil {
		return nil, p.unsupported(n)
	}

	// The whole switch block is one scope.
	p.pushScope()
	defer p.popScope()
	// Labels of a group without statements belong to the next group.
	var carry *jast.SwitchCase
	for i := 0; i < int(block.NamedChildCount()); i++ {
		group := block.NamedChild(i)
		if isComment(group) {
			continue
		}
		if group.Type() != "switch_block_statement_group" {
			return nil, p.unsupported(group)
		}
		c := carry
		if c == nil {
			c = &jast.SwitchCase{Body: &jast.Block{}}
		}
		for j := 0; j < int(group.NamedChildCount()); j++ {
			child := group.NamedChild(j)
			if child.Type() != "switch_label" {
				stmts, err := p.stmts(child)
				if err != nil {
					return nil, err
				}
				c.Body.Stmts = append(c.Body.Stmts, stmts...)
				continue
			}
			if child.NamedChildCount() == 0 {
				c.Default = true
				continue
			}
			for k := 0; k < int(child.NamedChildCount()); k++ {
				e, err := p.expr(child.NamedChild(k))
				if err != nil {
					return nil, err
				}
				c.Exprs = append(c.Exprs, e)
			}
		}
		if len(c.Body.Stmts) == 0 {
			carry = c
			continue
		}
		carry = nil
		s.Cases = append(s.Cases, c)
	}
	if carry != nil {
		s.Cases = append(s.Cases, carry)
	}
	return s, nil
}
