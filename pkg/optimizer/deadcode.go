package optimizer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/l3aro/go-gflow/pkg/gflow/constants"
	"github.com/l3aro/go-gflow/pkg/jast"
)

// DeadCodeElimination removes code without observable effect and
// simplifies control flow on constant conditions. It is the cleanup that
// makes the rewrites of the dataflow analyses pay off: substituting a
// constant into a condition only helps once the dead branch is gone.
type DeadCodeElimination struct {
	settings
}

// NewDeadCodeElimination creates the pass.
func NewDeadCodeElimination(opts ...Option) *DeadCodeElimination {
	return &DeadCodeElimination{settings: newSettings(opts)}
}

// Exec runs the pass over every method with a body.
func (d *DeadCodeElimination) Exec(ctx context.Context, prog *jast.Program) (bool, error) {
	changed := false
	for _, m := range prog.Methods {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		if m.Body == nil {
			continue
		}
		if d.ExecMethod(ctx, m) {
			changed = true
		}
	}
	return changed, nil
}

// ExecMethod simplifies the body of m until no rule applies and reports
// whether anything changed.
func (d *DeadCodeElimination) ExecMethod(ctx context.Context, m *jast.Method) bool {
	ctx, span := startMethodSpan(ctx, "DeadCodeElimination.ExecMethod", m)
	defer span.End()
	start := time.Now()

	rounds := 0
	for {
		v := &deadCodeVisitor{used: usedVariables(m.Body)}
		jast.Apply(m.Body, nil, v.post)
		if !v.changed {
			break
		}
		rounds++
	}

	changed := rounds > 0
	span.SetAttributes(
		attribute.Int("dce.rounds", rounds),
		attribute.Bool("method.changed", changed),
	)
	recordPass(ctx, "dce", time.Since(start), changed)
	if changed {
		d.logger.Debug("dead code removed", "method", m.Name, "rounds", rounds)
	}
	return changed
}

// deadCodeVisitor applies one round of rewrites bottom-up, so a parent
// always sees its children already simplified.
type deadCodeVisitor struct {
	used    map[*jast.Variable]bool
	changed bool
}

func (v *deadCodeVisitor) post(c *jast.Cursor) bool {
	switch n := c.Node().(type) {
	case jast.Literal:
	case jast.Expr:
		v.expr(c, n)
	case *jast.Block:
		v.block(c, n)
	case *jast.ExpressionStatement:
		if !jast.HasSideEffects(n.Expr) {
			v.remove(c)
		}
	case *jast.EmptyStatement:
		if c.Index() >= 0 {
			v.remove(c)
		}
	case *jast.DeclarationStatement:
		v.declaration(c, n)
	case *jast.IfStatement:
		v.ifStatement(c, n)
	case *jast.WhileStatement:
		if isFalse(n.Cond) {
			v.remove(c)
		}
	case *jast.ForStatement:
		if n.Cond != nil && isFalse(n.Cond) {
			if len(n.Init) == 0 {
				v.remove(c)
			} else {
				v.replace(c, &jast.Block{Stmts: n.Init})
			}
		}
	case *jast.DoStatement:
		if isFalse(n.Cond) && !jumpsOut(n.Body) {
			v.replace(c, n.Body)
		}
	case *jast.LabeledStatement:
		if !labelUsed(n.Body, n.Label) {
			v.replace(c, n.Body)
		}
	case *jast.TryStatement:
		v.tryStatement(c, n)
	}
	return true
}

func (v *deadCodeVisitor) expr(c *jast.Cursor, e jast.Expr) {
	if lit, ok := constants.Evaluate(e, nil); ok {
		v.changed = true
		c.Replace(jast.CloneLiteral(lit))
		return
	}

	switch e := e.(type) {
	case *jast.BinaryOperation:
		if e.Op != jast.OpAnd && e.Op != jast.OpOr {
			return
		}
		neutral := e.Op == jast.OpAnd
		if l, ok := e.Left.(*jast.BooleanLiteral); ok && l.Value == neutral {
			v.changed = true
			c.Replace(e.Right)
			return
		}
		r, ok := e.Right.(*jast.BooleanLiteral)
		if !ok {
			return
		}
		switch {
		case r.Value == neutral:
			v.changed = true
			c.Replace(e.Left)
		case !jast.HasSideEffects(e.Left):
			v.changed = true
			c.Replace(&jast.BooleanLiteral{Value: r.Value})
		}
	case *jast.ConditionalExpr:
		b, ok := e.Cond.(*jast.BooleanLiteral)
		if !ok {
			return
		}
		pick := e.Else
		if b.Value {
			pick = e.Then
		}
		if pick.Type() == e.Type() {
			v.changed = true
			c.Replace(pick)
		}
	}
}

func (v *deadCodeVisitor) block(c *jast.Cursor, n *jast.Block) {
	// Statements after a jump are unreachable. Switch groups are skipped:
	// their declarations stay in scope for the groups that follow.
	if _, inCase := c.Parent().(*jast.SwitchCase); !inCase {
		for i, s := range n.Stmts {
			if jast.IsAbrupt(s) && i+1 < len(n.Stmts) {
				n.Stmts = n.Stmts[:i+1]
				v.changed = true
				break
			}
		}
	}

	if _, ok := c.Parent().(*jast.Block); !ok || c.Index() < 0 {
		return
	}
	if len(n.Stmts) == 0 {
		v.remove(c)
		return
	}
	if declares(n) {
		return
	}
	for _, s := range n.Stmts {
		c.InsertBefore(s)
	}
	c.Delete()
	v.changed = true
}

func (v *deadCodeVisitor) declaration(c *jast.Cursor, n *jast.DeclarationStatement) {
	if v.used[n.Var] || c.Index() < 0 {
		return
	}
	switch {
	case n.Init == nil || !jast.HasSideEffects(n.Init):
		v.remove(c)
	case jast.IsStatementExpr(n.Init):
		v.replace(c, &jast.ExpressionStatement{Expr: n.Init})
	}
}

func (v *deadCodeVisitor) ifStatement(c *jast.Cursor, n *jast.IfStatement) {
	if b, ok := n.Cond.(*jast.BooleanLiteral); ok {
		branch := n.Else
		if b.Value {
			branch = n.Then
		}
		if branch == nil {
			v.remove(c)
		} else {
			v.replace(c, branch)
		}
		return
	}

	if n.Else != nil && isEmpty(n.Else) && !danglingElse(c) {
		n.Else = nil
		v.changed = true
	}
	if n.Else == nil && isEmpty(n.Then) && !jast.HasSideEffects(n.Cond) {
		v.remove(c)
	}
}

func (v *deadCodeVisitor) tryStatement(c *jast.Cursor, n *jast.TryStatement) {
	if n.Finally != nil && len(n.Finally.Stmts) == 0 && len(n.Catches) > 0 {
		n.Finally = nil
		v.changed = true
	}
	switch {
	case len(n.Body.Stmts) == 0 && n.Finally != nil:
		v.replace(c, n.Finally)
	case len(n.Body.Stmts) == 0:
		v.remove(c)
	case len(n.Catches) == 0 && n.Finally != nil && len(n.Finally.Stmts) == 0:
		v.replace(c, n.Body)
	}
}

// remove deletes the current statement. Slots that require a statement get
// an empty block instead.
func (v *deadCodeVisitor) remove(c *jast.Cursor) {
	v.changed = true
	switch {
	case c.Index() >= 0:
		c.Delete()
	case c.Name() == "Else":
		c.Replace(nil)
	default:
		c.Replace(&jast.Block{})
	}
}

// replace puts s in place of the current statement. Outside statement
// lists s is wrapped in a block so an if without else can never capture a
// following else.
func (v *deadCodeVisitor) replace(c *jast.Cursor, s jast.Stmt) {
	v.changed = true
	if _, ok := s.(*jast.Block); !ok && c.Index() < 0 {
		s = &jast.Block{Stmts: []jast.Stmt{s}}
	}
	c.Replace(s)
}

// danglingElse reports whether dropping the else of the if at c would let
// an enclosing else bind to it when printed.
func danglingElse(c *jast.Cursor) bool {
	outer, ok := c.Parent().(*jast.IfStatement)
	return ok && c.Name() == "Then" && outer.Else != nil
}

func usedVariables(root jast.Node) map[*jast.Variable]bool {
	used := make(map[*jast.Variable]bool)
	jast.Inspect(root, func(n jast.Node) bool {
		if ref, ok := n.(*jast.VariableRef); ok {
			used[ref.Var] = true
		}
		return true
	})
	return used
}

func isFalse(e jast.Expr) bool {
	b, ok := e.(*jast.BooleanLiteral)
	return ok && !b.Value
}

func isEmpty(s jast.Stmt) bool {
	switch s := s.(type) {
	case nil, *jast.EmptyStatement:
		return true
	case *jast.Block:
		return len(s.Stmts) == 0
	}
	return false
}

func declares(b *jast.Block) bool {
	for _, s := range b.Stmts {
		if _, ok := s.(*jast.DeclarationStatement); ok {
			return true
		}
	}
	return false
}

// jumpsOut reports whether body contains a break or continue that would
// leave a loop whose body it is. Labeled jumps count conservatively.
func jumpsOut(body jast.Stmt) bool {
	found := false
	loops, breakables := 0, 0
	jast.Apply(body, func(c *jast.Cursor) bool {
		switch n := c.Node().(type) {
		case jast.Expr:
			return false
		case *jast.BreakStatement:
			found = found || n.Label != "" || breakables == 0
		case *jast.ContinueStatement:
			found = found || n.Label != "" || loops == 0
		case *jast.WhileStatement, *jast.DoStatement, *jast.ForStatement:
			loops++
			breakables++
		case *jast.SwitchStatement:
			breakables++
		}
		return !found
	}, func(c *jast.Cursor) bool {
		switch c.Node().(type) {
		case *jast.WhileStatement, *jast.DoStatement, *jast.ForStatement:
			loops--
			breakables--
		case *jast.SwitchStatement:
			breakables--
		}
		return true
	})
	return found
}

func labelUsed(body jast.Stmt, label string) bool {
	used := false
	jast.Inspect(body, func(n jast.Node) bool {
		switch n := n.(type) {
		case *jast.BreakStatement:
			used = used || n.Label == label
		case *jast.ContinueStatement:
			used = used || n.Label == label
		}
		return !used
	})
	return used
}
