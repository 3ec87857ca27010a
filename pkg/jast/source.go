package jast

import (
	"fmt"
	"strconv"
	"strings"
)

// ToSource renders n as Java source. Statements end with a newline; blocks
// are indented by two spaces per level.
func ToSource(n Node) string {
	p := &printer{}
	p.node(n)
	return p.sb.String()
}

// MethodSource renders a whole method declaration.
func MethodSource(m *Method) string {
	p := &printer{}
	p.sb.WriteString(m.Signature())
	if m.Body == nil {
		p.sb.WriteString(";\n")
		return p.sb.String()
	}
	p.sb.WriteString(" ")
	p.block(m.Body)
	p.sb.WriteString("\n")
	return p.sb.String()
}

// Summary renders n on a single line, for diagnostics.
func Summary(n Node) string {
	if n == nil {
		return "<nil>"
	}
	switch n := n.(type) {
	case Expr:
		return ToSource(n)
	case *Block:
		return fmt.Sprintf("{...%d}", len(n.Stmts))
	case *IfStatement:
		return "if (" + ToSource(n.Cond) + ")"
	case *WhileStatement:
		return "while (" + ToSource(n.Cond) + ")"
	case *DoStatement:
		return "do-while (" + ToSource(n.Cond) + ")"
	case *ForStatement:
		return "for"
	case *TryStatement:
		return "try"
	case *CatchClause:
		return "catch (" + n.Var.Name + ")"
	case *SwitchStatement:
		return "switch (" + ToSource(n.Expr) + ")"
	case *SwitchCase:
		if n.Default {
			return "default:"
		}
		return "case"
	case *LabeledStatement:
		return n.Label + ":"
	}
	return strings.TrimSpace(ToSource(n))
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) newline() {
	p.sb.WriteString("\n")
	p.sb.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case Expr:
		p.expr(n, 0)
	case *CatchClause:
		p.catch(n)
	case *SwitchCase:
		p.switchCase(n)
	case Stmt:
		p.stmt(n)
	default:
		panic(fmt.Sprintf("jast: cannot print %T", n))
	}
}

func (p *printer) block(b *Block) {
	p.sb.WriteString("{")
	p.indent++
	for _, s := range b.Stmts {
		p.newline()
		p.stmt(s)
	}
	p.indent--
	p.newline()
	p.sb.WriteString("}")
}

// body prints a nested statement after a keyword: blocks stay on the same
// line, anything else is indented on the next.
func (p *printer) body(s Stmt) {
	if b, ok := s.(*Block); ok {
		p.sb.WriteString(" ")
		p.block(b)
		return
	}
	p.indent++
	p.newline()
	p.stmt(s)
	p.indent--
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Block:
		p.block(s)
	case *DeclarationStatement:
		fmt.Fprintf(&p.sb, "%s %s", s.Var.Type, s.Var.Name)
		if s.Init != nil {
			p.sb.WriteString(" = ")
			p.expr(s.Init, precAssign)
		}
		p.sb.WriteString(";")
	case *ExpressionStatement:
		p.expr(s.Expr, 0)
		p.sb.WriteString(";")
	case *IfStatement:
		p.sb.WriteString("if (")
		p.expr(s.Cond, 0)
		p.sb.WriteString(")")
		p.body(s.Then)
		if s.Else != nil {
			if _, ok := s.Then.(*Block); ok {
				p.sb.WriteString(" else")
			} else {
				p.newline()
				p.sb.WriteString("else")
			}
			if elseIf, ok := s.Else.(*IfStatement); ok {
				p.sb.WriteString(" ")
				p.stmt(elseIf)
			} else {
				p.body(s.Else)
			}
		}
	case *WhileStatement:
		p.sb.WriteString("while (")
		p.expr(s.Cond, 0)
		p.sb.WriteString(")")
		p.body(s.Body)
	case *DoStatement:
		p.sb.WriteString("do")
		p.body(s.Body)
		if _, ok := s.Body.(*Block); ok {
			p.sb.WriteString(" ")
		} else {
			p.newline()
		}
		p.sb.WriteString("while (")
		p.expr(s.Cond, 0)
		p.sb.WriteString(");")
	case *ForStatement:
		p.sb.WriteString("for (")
		p.forClause(s.Init)
		p.sb.WriteString(";")
		if s.Cond != nil {
			p.sb.WriteString(" ")
			p.expr(s.Cond, 0)
		}
		p.sb.WriteString(";")
		if len(s.Update) > 0 {
			p.sb.WriteString(" ")
			p.forClause(s.Update)
		}
		p.sb.WriteString(")")
		p.body(s.Body)
	case *BreakStatement:
		p.jump("break", s.Label)
	case *ContinueStatement:
		p.jump("continue", s.Label)
	case *LabeledStatement:
		p.sb.WriteString(s.Label)
		p.sb.WriteString(": ")
		p.stmt(s.Body)
	case *ReturnStatement:
		p.sb.WriteString("return")
		if s.Expr != nil {
			p.sb.WriteString(" ")
			p.expr(s.Expr, 0)
		}
		p.sb.WriteString(";")
	case *ThrowStatement:
		p.sb.WriteString("throw ")
		p.expr(s.Expr, 0)
		p.sb.WriteString(";")
	case *TryStatement:
		p.sb.WriteString("try ")
		p.block(s.Body)
		for _, c := range s.Catches {
			p.sb.WriteString(" ")
			p.catch(c)
		}
		if s.Finally != nil {
			p.sb.WriteString(" finally ")
			p.block(s.Finally)
		}
	case *SwitchStatement:
		p.sb.WriteString("switch (")
		p.expr(s.Expr, 0)
		p.sb.WriteString(") {")
		p.indent++
		for _, c := range s.Cases {
			p.newline()
			p.switchCase(c)
		}
		p.indent--
		p.newline()
		p.sb.WriteString("}")
	case *EmptyStatement:
		p.sb.WriteString(";")
	default:
		panic(fmt.Sprintf("jast: cannot print statement %T", s))
	}
}

func (p *printer) jump(keyword, label string) {
	p.sb.WriteString(keyword)
	if label != "" {
		p.sb.WriteString(" ")
		p.sb.WriteString(label)
	}
	p.sb.WriteString(";")
}

func (p *printer) catch(c *CatchClause) {
	fmt.Fprintf(&p.sb, "catch (%s %s) ", c.Var.Type, c.Var.Name)
	p.block(c.Body)
}

func (p *printer) switchCase(c *SwitchCase) {
	for i, e := range c.Exprs {
		if i > 0 {
			p.newline()
		}
		p.sb.WriteString("case ")
		p.expr(e, 0)
		p.sb.WriteString(":")
	}
	if c.Default {
		if len(c.Exprs) > 0 {
			p.newline()
		}
		p.sb.WriteString("default:")
	}
	p.indent++
	for _, s := range c.Body.Stmts {
		p.newline()
		p.stmt(s)
	}
	p.indent--
}

// forClause prints init or update statements without their semicolons.
func (p *printer) forClause(stmts []Stmt) {
	for i, s := range stmts {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		switch s := s.(type) {
		case *ExpressionStatement:
			p.expr(s.Expr, 0)
		case *DeclarationStatement:
			if i == 0 {
				fmt.Fprintf(&p.sb, "%s ", s.Var.Type)
			}
			p.sb.WriteString(s.Var.Name)
			if s.Init != nil {
				p.sb.WriteString(" = ")
				p.expr(s.Init, precAssign)
			}
		default:
			p.stmt(s)
		}
	}
}

// expr prints e, parenthesizing it when it binds looser than prec.
func (p *printer) expr(e Expr, prec int) {
	own := exprPrecedence(e)
	if own < prec {
		p.sb.WriteString("(")
		defer p.sb.WriteString(")")
	}
	switch e := e.(type) {
	case *IntLiteral:
		p.sb.WriteString(strconv.FormatInt(int64(e.Value), 10))
	case *LongLiteral:
		p.sb.WriteString(strconv.FormatInt(e.Value, 10))
		p.sb.WriteString("L")
	case *CharLiteral:
		p.sb.WriteString(quoteChar(e.Value))
	case *BooleanLiteral:
		p.sb.WriteString(strconv.FormatBool(e.Value))
	case *StringLiteral:
		p.sb.WriteString(strconv.Quote(e.Value))
	case *NullLiteral:
		p.sb.WriteString("null")
	case *VariableRef:
		p.sb.WriteString(e.Var.Name)
	case *NameRef:
		p.sb.WriteString(e.Name)
	case *FieldRef:
		if e.Instance != nil {
			p.expr(e.Instance, precPostfix)
			p.sb.WriteString(".")
		}
		p.sb.WriteString(e.Name)
	case *BinaryOperation:
		left, right := own, own+1
		if e.Op.IsAssignment() {
			left, right = own+1, own
		}
		p.expr(e.Left, left)
		fmt.Fprintf(&p.sb, " %s ", e.Op)
		p.expr(e.Right, right)
	case *PrefixOperation:
		p.sb.WriteString(e.Op.String())
		if inner, ok := e.Arg.(*PrefixOperation); ok && inner.Op.String()[0] == e.Op.String()[0] {
			p.sb.WriteString(" ")
		}
		p.expr(e.Arg, precUnary)
	case *PostfixOperation:
		p.expr(e.Arg, precPostfix)
		p.sb.WriteString(e.Op.String())
	case *ConditionalExpr:
		p.expr(e.Cond, precConditional+1)
		p.sb.WriteString(" ? ")
		p.expr(e.Then, precConditional)
		p.sb.WriteString(" : ")
		p.expr(e.Else, precConditional)
	case *MethodCall:
		if e.Instance != nil {
			p.expr(e.Instance, precPostfix)
			p.sb.WriteString(".")
		}
		p.sb.WriteString(e.Name)
		p.args(e.Args)
	case *NewInstance:
		p.sb.WriteString("new ")
		p.sb.WriteString(e.Class)
		p.args(e.Args)
	default:
		panic(fmt.Sprintf("jast: cannot print expression %T", e))
	}
}

func (p *printer) args(args []Expr) {
	p.sb.WriteString("(")
	for i, a := range args {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.expr(a, precAssign)
	}
	p.sb.WriteString(")")
}

func exprPrecedence(e Expr) int {
	switch e := e.(type) {
	case *BinaryOperation:
		return e.Op.Precedence()
	case *ConditionalExpr:
		return precConditional
	case *PrefixOperation:
		return precUnary
	case *PostfixOperation:
		return precPostfix
	case *IntLiteral:
		if e.Value < 0 {
			return precUnary - 1
		}
	case *LongLiteral:
		if e.Value < 0 {
			return precUnary - 1
		}
	}
	return precPrimary
}

func quoteChar(c uint16) string {
	switch c {
	case '\'':
		return `'\''`
	case '\\':
		return `'\\'`
	case '\n':
		return `'\n'`
	case '\t':
		return `'\t'`
	case '\r':
		return `'\r'`
	case 0:
		return `'\0'`
	}
	if c < 0x20 || c > 0x7e {
		return fmt.Sprintf(`'\u%04x'`, c)
	}
	return "'" + string(rune(c)) + "'"
}
