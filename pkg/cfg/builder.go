package cfg

import (
	"fmt"

	"github.com/l3aro/go-gflow/pkg/jast"
)

type exitKind int

const (
	exitNormal exitKind = iota
	exitBreak
	exitContinue
	exitReturn
	exitThrow
)

// pending is an out edge whose target is not known yet.
type pending struct {
	from  *Node
	role  EdgeRole
	kind  exitKind
	label string
	// implicit marks the possible runtime exception of a statement inside a
	// protected region. It only feeds that region's handlers.
	implicit bool
}

type builder struct {
	prog   *jast.Program
	g      *Graph
	parent *Node
	// normal holds edges that continue to whatever node comes next.
	normal []pending
	// jumps holds break, continue, return and throw exits waiting for the
	// construct that resolves them.
	jumps    []pending
	tryDepth int
	scope    *Scope
}

// Build constructs the CFG for m. It panics if m has no body or if the body
// is malformed (for example a break with no enclosing target); both mean an
// earlier phase produced a broken tree.
func Build(prog *jast.Program, m *jast.Method) *Graph {
	if m == nil || m.Body == nil {
		panic("cfg: method has no body")
	}
	g := &Graph{Method: m}
	b := &builder{prog: prog, g: g}
	b.scope = &Scope{Vars: append([]*jast.Variable(nil), m.Params...)}

	g.Entry = b.add(KindEntry, nil)
	b.stmt(m.Body, "")
	g.Exit = b.addNode(KindExit, nil)
	for _, j := range b.jumps {
		switch j.kind {
		case exitReturn, exitThrow:
			b.connect(j.from, g.Exit, j.role)
		default:
			panic(fmt.Sprintf("cfg: unresolved %s in %s", jast.Summary(j.from.AST), m.Name))
		}
	}
	b.check()
	return g
}

// check verifies that every variable node refers to a variable owned by
// the program.
func (b *builder) check() {
	if b.prog == nil {
		return
	}
	for _, n := range b.g.Nodes {
		if n.Var != nil && n.Var.ID >= b.prog.NumVariables() {
			panic(fmt.Sprintf("cfg: variable %s is not owned by the program", n.Var.Name))
		}
	}
}

// addNode creates a node and routes every pending normal edge into it.
func (b *builder) addNode(kind NodeKind, ast jast.Node) *Node {
	n := &Node{ID: len(b.g.Nodes), Kind: kind, AST: ast, Parent: b.parent, Scope: b.scope}
	b.g.Nodes = append(b.g.Nodes, n)
	for _, p := range b.normal {
		b.connect(p.from, n, p.role)
	}
	b.normal = nil
	return n
}

// add creates a straight-line node that falls through to the next one.
func (b *builder) add(kind NodeKind, ast jast.Node) *Node {
	n := b.addNode(kind, ast)
	b.normal = []pending{{from: n}}
	return n
}

// openScope enters a nested scope and returns the function leaving it.
func (b *builder) openScope() func() {
	saved := b.scope
	b.scope = &Scope{Parent: saved}
	return func() { b.scope = saved }
}

func (b *builder) declare(v *jast.Variable) {
	b.scope.Vars = append(b.scope.Vars, v)
}

func (b *builder) connect(from, to *Node, role EdgeRole) {
	e := &Edge{From: from, To: to, Role: role}
	from.Out = append(from.Out, e)
	to.In = append(to.In, e)
	b.g.Edges = append(b.g.Edges, e)
}

func (b *builder) connectAll(ps []pending, to *Node) {
	for _, p := range ps {
		b.connect(p.from, to, p.role)
	}
}

func (b *builder) jump(from *Node, kind exitKind, label string) {
	role := RoleNormal
	if kind == exitThrow {
		role = RoleException
	}
	b.jumps = append(b.jumps, pending{from: from, role: role, kind: kind, label: label})
}

// takeJumps splits the jumps recorded since mark into those matching kind
// and label (an empty jump label matches any target) and the rest, which
// stay pending.
func (b *builder) takeJumps(mark int, kind exitKind, label string) []pending {
	var taken, kept []pending
	for _, j := range b.jumps[mark:] {
		if j.kind == kind && (j.label == "" || j.label == label) {
			taken = append(taken, pending{from: j.from})
			continue
		}
		kept = append(kept, j)
	}
	b.jumps = append(b.jumps[:mark], kept...)
	return taken
}

// takeLabeled is takeJumps for labeled jumps only, used by a labeled
// statement that is not a loop.
func (b *builder) takeLabeled(mark int, kind exitKind, label string) []pending {
	var taken, kept []pending
	for _, j := range b.jumps[mark:] {
		if j.kind == kind && j.label == label {
			taken = append(taken, pending{from: j.from})
			continue
		}
		kept = append(kept, j)
	}
	b.jumps = append(b.jumps[:mark], kept...)
	return taken
}

func (b *builder) stmt(s jast.Stmt, label string) {
	kind := KindStatement
	if _, ok := s.(*jast.Block); ok {
		kind = KindBlock
	}
	n := b.add(kind, s)
	if kind == KindStatement && b.tryDepth > 0 {
		b.jumps = append(b.jumps, pending{from: n, role: RoleException, kind: exitThrow, implicit: true})
	}

	saved := b.parent
	b.parent = n
	defer func() { b.parent = saved }()

	switch s := s.(type) {
	case *jast.Block:
		closeScope := b.openScope()
		for _, c := range s.Stmts {
			b.stmt(c, "")
		}
		closeScope()
	case *jast.DeclarationStatement:
		b.declare(s.Var)
		if s.Init != nil {
			b.expr(s.Init)
			w := b.add(KindWrite, s)
			w.Var = s.Var
			w.Value = s.Init
		}
	case *jast.ExpressionStatement:
		b.expr(s.Expr)
	case *jast.EmptyStatement:
	case *jast.IfStatement:
		b.ifStmt(s)
	case *jast.WhileStatement:
		b.whileStmt(s, label)
	case *jast.DoStatement:
		b.doStmt(s, label)
	case *jast.ForStatement:
		b.forStmt(s, label)
	case *jast.BreakStatement:
		b.jump(b.addNode(KindGoto, s), exitBreak, s.Label)
	case *jast.ContinueStatement:
		b.jump(b.addNode(KindGoto, s), exitContinue, s.Label)
	case *jast.ReturnStatement:
		if s.Expr != nil {
			b.expr(s.Expr)
		}
		b.jump(b.addNode(KindGoto, s), exitReturn, "")
	case *jast.ThrowStatement:
		b.expr(s.Expr)
		b.jump(b.addNode(KindThrow, s), exitThrow, "")
	case *jast.LabeledStatement:
		b.labeled(s)
	case *jast.SwitchStatement:
		b.switchStmt(s)
	case *jast.TryStatement:
		b.tryStmt(s)
	default:
		panic(fmt.Sprintf("cfg: unexpected statement %T", s))
	}
}

func (b *builder) ifStmt(s *jast.IfStatement) {
	b.expr(s.Cond)
	c := b.addNode(KindConditional, s)
	c.Cond = s.Cond

	b.normal = []pending{{from: c, role: RoleThen}}
	b.stmt(s.Then, "")
	thenExits := b.normal

	b.normal = []pending{{from: c, role: RoleElse}}
	if s.Else != nil {
		b.stmt(s.Else, "")
	}
	b.normal = append(thenExits, b.normal...)
}

func (b *builder) whileStmt(s *jast.WhileStatement, label string) {
	head := len(b.g.Nodes)
	b.expr(s.Cond)
	c := b.addNode(KindConditional, s)
	c.Cond = s.Cond
	headNode := b.g.Nodes[head]

	mark := len(b.jumps)
	b.normal = []pending{{from: c, role: RoleThen}}
	b.stmt(s.Body, "")
	b.connectAll(b.normal, headNode)
	b.connectAll(b.takeJumps(mark, exitContinue, label), headNode)

	breaks := b.takeJumps(mark, exitBreak, label)
	b.normal = append([]pending{{from: c, role: RoleElse}}, breaks...)
}

func (b *builder) doStmt(s *jast.DoStatement, label string) {
	mark := len(b.jumps)
	bodyStart := len(b.g.Nodes)
	b.stmt(s.Body, "")
	bodyHead := b.g.Nodes[bodyStart]

	b.normal = append(b.normal, b.takeJumps(mark, exitContinue, label)...)
	b.expr(s.Cond)
	c := b.addNode(KindConditional, s)
	c.Cond = s.Cond
	b.connect(c, bodyHead, RoleThen)

	breaks := b.takeJumps(mark, exitBreak, label)
	b.normal = append([]pending{{from: c, role: RoleElse}}, breaks...)
}

func (b *builder) forStmt(s *jast.ForStatement, label string) {
	defer b.openScope()()
	for _, init := range s.Init {
		b.stmt(init, "")
	}

	var (
		head *Node
		c    *Node
	)
	if s.Cond != nil {
		headIdx := len(b.g.Nodes)
		b.expr(s.Cond)
		c = b.addNode(KindConditional, s)
		c.Cond = s.Cond
		head = b.g.Nodes[headIdx]
		b.normal = []pending{{from: c, role: RoleThen}}
	}

	mark := len(b.jumps)
	bodyStart := len(b.g.Nodes)
	b.stmt(s.Body, "")
	if head == nil {
		head = b.g.Nodes[bodyStart]
	}

	b.normal = append(b.normal, b.takeJumps(mark, exitContinue, label)...)
	for _, upd := range s.Update {
		b.stmt(upd, "")
	}
	b.connectAll(b.normal, head)

	b.normal = b.takeJumps(mark, exitBreak, label)
	if c != nil {
		b.normal = append([]pending{{from: c, role: RoleElse}}, b.normal...)
	}
}

func (b *builder) labeled(s *jast.LabeledStatement) {
	mark := len(b.jumps)
	switch s.Body.(type) {
	case *jast.WhileStatement, *jast.DoStatement, *jast.ForStatement:
		b.stmt(s.Body, s.Label)
	default:
		b.stmt(s.Body, "")
	}
	b.normal = append(b.normal, b.takeLabeled(mark, exitBreak, s.Label)...)
}

// switchStmt tests each label in order with a CASE node. A matching label
// enters its group; groups fall through into the next one.
func (b *builder) switchStmt(s *jast.SwitchStatement) {
	b.expr(s.Expr)

	entries := make([][]pending, len(s.Cases))
	defaultIdx := -1
	for i, c := range s.Cases {
		if c.Default {
			defaultIdx = i
		}
		for _, e := range c.Exprs {
			cn := b.addNode(KindCase, c)
			cn.Cond = e
			entries[i] = append(entries[i], pending{from: cn, role: RoleThen})
			b.normal = []pending{{from: cn, role: RoleElse}}
		}
	}
	noMatch := b.normal
	if defaultIdx >= 0 {
		entries[defaultIdx] = append(entries[defaultIdx], noMatch...)
		noMatch = nil
	}

	mark := len(b.jumps)
	b.normal = nil
	closeScope := b.openScope()
	for i, c := range s.Cases {
		b.normal = append(b.normal, entries[i]...)
		for _, st := range c.Body.Stmts {
			b.stmt(st, "")
		}
	}
	closeScope()
	breaks := b.takeUnlabeled(mark, exitBreak)
	b.normal = append(append(b.normal, noMatch...), breaks...)
}

// takeUnlabeled resolves only jumps without a label.
func (b *builder) takeUnlabeled(mark int, kind exitKind) []pending {
	var taken, kept []pending
	for _, j := range b.jumps[mark:] {
		if j.kind == kind && j.label == "" {
			taken = append(taken, pending{from: j.from})
			continue
		}
		kept = append(kept, j)
	}
	b.jumps = append(b.jumps[:mark], kept...)
	return taken
}

// tryStmt routes throws from the protected block to every catch clause and
// sends every exit of the statement through the finally block, whose END
// node then fans out to the original destinations.
func (b *builder) tryStmt(s *jast.TryStatement) {
	b.add(KindTry, s)

	outer := b.jumps
	b.jumps = nil
	b.tryDepth++
	b.stmt(s.Body, "")
	b.tryDepth--
	bodyJumps := b.jumps
	normalOut := b.normal

	var throws []pending
	for _, j := range bodyJumps {
		if j.kind == exitThrow {
			throws = append(throws, j)
		}
	}

	var exits []pending
	for _, j := range bodyJumps {
		if !j.implicit {
			exits = append(exits, j)
		}
	}
	for _, c := range s.Catches {
		b.jumps = nil
		b.normal = nil
		for _, t := range throws {
			b.normal = append(b.normal, pending{from: t.from, role: RoleException})
		}
		closeScope := b.openScope()
		b.declare(c.Var)
		w := b.add(KindWrite, c)
		w.Var = c.Var
		b.stmt(c.Body, "")
		closeScope()
		normalOut = append(normalOut, b.normal...)
		exits = append(exits, b.jumps...)
	}

	if s.Finally == nil {
		b.jumps = append(outer, exits...)
		b.normal = normalOut
		return
	}

	// Every way out of the try and catch blocks, including implicit
	// exceptions of the protected block, runs the finally block first.
	b.normal = normalOut
	for _, j := range bodyJumps {
		if j.implicit {
			b.normal = append(b.normal, pending{from: j.from, role: RoleException})
		}
	}
	for _, j := range exits {
		b.normal = append(b.normal, pending{from: j.from, role: j.role})
	}
	b.jumps = nil
	b.stmt(s.Finally, "")
	finallyJumps := b.jumps
	end := b.addNode(KindEnd, s)

	b.jumps = append(outer, finallyJumps...)
	type target struct {
		kind  exitKind
		label string
	}
	seen := make(map[target]bool)
	for _, j := range exits {
		t := target{j.kind, j.label}
		if seen[t] {
			continue
		}
		seen[t] = true
		b.jumps = append(b.jumps, pending{from: end, role: j.role, kind: j.kind, label: j.label})
	}
	b.normal = nil
	if len(normalOut) > 0 {
		b.normal = []pending{{from: end}}
	}
}

// lvalue visits the parts of an assignment target that are evaluated
// before the right-hand side.
func (b *builder) lvalue(e jast.Expr) {
	if f, ok := e.(*jast.FieldRef); ok && f.Instance != nil {
		b.expr(f.Instance)
	}
}

func (b *builder) expr(e jast.Expr) {
	switch e := e.(type) {
	case *jast.IntLiteral, *jast.LongLiteral, *jast.CharLiteral, *jast.BooleanLiteral,
		*jast.StringLiteral, *jast.NullLiteral, *jast.NameRef:
	case *jast.VariableRef:
		b.add(KindRead, e).Var = e.Var
	case *jast.FieldRef:
		if e.Instance != nil {
			b.expr(e.Instance)
		}
	case *jast.BinaryOperation:
		b.binary(e)
	case *jast.PrefixOperation:
		b.unary(e, e.Op, e.Arg)
	case *jast.PostfixOperation:
		b.unary(e, e.Op, e.Arg)
	case *jast.ConditionalExpr:
		b.expr(e.Cond)
		c := b.addNode(KindConditional, e)
		c.Cond = e.Cond
		b.normal = []pending{{from: c, role: RoleThen}}
		b.expr(e.Then)
		thenExits := b.normal
		b.normal = []pending{{from: c, role: RoleElse}}
		b.expr(e.Else)
		b.normal = append(thenExits, b.normal...)
	case *jast.MethodCall:
		if e.Instance != nil {
			b.expr(e.Instance)
		}
		for _, a := range e.Args {
			b.expr(a)
		}
		b.jump(b.add(KindCall, e), exitThrow, "")
	case *jast.NewInstance:
		for _, a := range e.Args {
			b.expr(a)
		}
		b.jump(b.add(KindCall, e), exitThrow, "")
	default:
		panic(fmt.Sprintf("cfg: unexpected expression %T", e))
	}
}

func (b *builder) binary(e *jast.BinaryOperation) {
	switch {
	case e.Op == jast.OpAssign:
		b.lvalue(e.Left)
		b.expr(e.Right)
		if ref, ok := e.Left.(*jast.VariableRef); ok {
			w := b.add(KindWrite, e)
			w.Var = ref.Var
			w.Value = e.Right
		}
	case e.Op.IsCompoundAssignment():
		b.lvalue(e.Left)
		b.expr(e.Right)
		if ref, ok := e.Left.(*jast.VariableRef); ok {
			b.add(KindReadWrite, e).Var = ref.Var
		}
	case e.Op == jast.OpAnd || e.Op == jast.OpOr:
		b.expr(e.Left)
		c := b.addNode(KindConditional, e)
		c.Cond = e.Left
		evalRight, skip := RoleThen, RoleElse
		if e.Op == jast.OpOr {
			evalRight, skip = RoleElse, RoleThen
		}
		b.normal = []pending{{from: c, role: evalRight}}
		b.expr(e.Right)
		b.normal = append(b.normal, pending{from: c, role: skip})
	default:
		b.expr(e.Left)
		b.expr(e.Right)
	}
}

func (b *builder) unary(e jast.Expr, op jast.UnaryOp, arg jast.Expr) {
	if !op.IsModifying() {
		b.expr(arg)
		return
	}
	if ref, ok := arg.(*jast.VariableRef); ok {
		b.add(KindReadWrite, e).Var = ref.Var
		return
	}
	b.lvalue(arg)
}
