package jast

import "fmt"

// ApplyFunc is invoked by Apply for each node n, before and after its
// children are traversed. A pre function returning false skips the
// children; a post function returning false aborts the traversal.
type ApplyFunc func(*Cursor) bool

// A Cursor describes the node currently being visited by Apply and lets the
// visitor replace or delete it in its parent.
type Cursor struct {
	parent Node
	name   string
	iter   *iterator
	list   *[]Stmt
	set    func(Node)
	node   Node
}

type iterator struct {
	index, step int
}

// Node returns the current node.
func (c *Cursor) Node() Node { return c.node }

// Parent returns the parent of the current node.
func (c *Cursor) Parent() Node { return c.parent }

// Name returns the name of the parent field that holds the current node,
// such as "Then" or "Stmts".
func (c *Cursor) Name() string { return c.name }

// Index reports the index of the current node within a statement list, or
// a value < 0 if it is not part of one.
func (c *Cursor) Index() int {
	if c.iter != nil && c.list != nil {
		return c.iter.index
	}
	return -1
}

// Replace replaces the current node with n. The replacement is not walked.
func (c *Cursor) Replace(n Node) {
	if c.list != nil {
		s, ok := n.(Stmt)
		if !ok {
			panic(fmt.Sprintf("jast: cannot place %T in statement list %s", n, c.name))
		}
		(*c.list)[c.iter.index] = s
	} else {
		c.set(n)
	}
	c.node = n
}

// Delete deletes the current node from its statement list. It panics if the
// node is not part of a list.
func (c *Cursor) Delete() {
	if c.list == nil {
		panic("jast: Delete outside a statement list")
	}
	i := c.iter.index
	*c.list = append((*c.list)[:i], (*c.list)[i+1:]...)
	c.iter.step--
	c.node = nil
}

// InsertAfter inserts s after the current node in its statement list. The
// inserted node is walked after the current one.
func (c *Cursor) InsertAfter(s Stmt) {
	if c.list == nil {
		panic("jast: InsertAfter outside a statement list")
	}
	i := c.iter.index + 1
	*c.list = append(*c.list, nil)
	copy((*c.list)[i+1:], (*c.list)[i:])
	(*c.list)[i] = s
}

// InsertBefore inserts s before the current node. It is not walked.
func (c *Cursor) InsertBefore(s Stmt) {
	if c.list == nil {
		panic("jast: InsertBefore outside a statement list")
	}
	i := c.iter.index
	*c.list = append(*c.list, nil)
	copy((*c.list)[i+1:], (*c.list)[i:])
	(*c.list)[i] = s
	c.iter.index++
}

type abortApply struct{}

// Apply traverses root recursively, calling pre and post for each non-nil
// node. Nodes are replaced through the cursor by rebuilding the parent's
// slot. Apply returns the possibly replaced root.
func Apply(root Node, pre, post ApplyFunc) (result Node) {
	parent := &rootHolder{root: root}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortApply); !ok {
				panic(r)
			}
		}
		result = parent.root
	}()
	a := &application{pre: pre, post: post}
	a.apply(parent, "Node", nil, func(n Node) { parent.root = n }, root)
	return parent.root
}

// Inspect walks root in pre-order, calling f for each node. If f returns
// false, the children of that node are skipped.
func Inspect(root Node, f func(Node) bool) {
	Apply(root, func(c *Cursor) bool { return f(c.Node()) }, nil)
}

type rootHolder struct{ root Node }

func (*rootHolder) node() {}

type application struct {
	pre, post ApplyFunc
	cursor    Cursor
	iter      iterator
}

func (a *application) apply(parent Node, name string, list *[]Stmt, set func(Node), n Node) {
	saved := a.cursor
	a.cursor = Cursor{parent: parent, name: name, list: list, set: set, node: n}
	if list != nil {
		a.cursor.iter = &a.iter
	}
	if a.pre == nil || a.pre(&a.cursor) {
		if n := a.cursor.node; n != nil {
			a.children(n)
		}
		if a.post != nil && a.cursor.node != nil && !a.post(&a.cursor) {
			panic(abortApply{})
		}
	}
	a.cursor = saved
}

func (a *application) applyList(parent Node, name string, list *[]Stmt) {
	saved := a.iter
	a.iter.index = 0
	for a.iter.index < len(*list) {
		a.iter.step = 1
		a.apply(parent, name, list, nil, (*list)[a.iter.index])
		a.iter.index += a.iter.step
	}
	a.iter = saved
}

func (a *application) expr(parent Node, name string, e Expr, set func(Expr)) {
	if e == nil {
		return
	}
	a.apply(parent, name, nil, func(n Node) { set(asExpr(n)) }, e)
}

func (a *application) stmt(parent Node, name string, s Stmt, set func(Stmt)) {
	if s == nil {
		return
	}
	a.apply(parent, name, nil, func(n Node) { set(asStmt(n)) }, s)
}

func (a *application) exprs(parent Node, name string, list []Expr) {
	for i := range list {
		i := i
		a.expr(parent, name, list[i], func(e Expr) { list[i] = e })
	}
}

func (a *application) block(parent Node, name string, b *Block, set func(*Block)) {
	if b == nil {
		return
	}
	a.apply(parent, name, nil, func(n Node) { set(asBlock(n)) }, b)
}

func (a *application) children(n Node) {
	switch n := n.(type) {
	case *IntLiteral, *LongLiteral, *CharLiteral, *BooleanLiteral, *StringLiteral, *NullLiteral,
		*VariableRef, *NameRef:

	case *FieldRef:
		a.expr(n, "Instance", n.Instance, func(e Expr) { n.Instance = e })
	case *BinaryOperation:
		a.expr(n, "Left", n.Left, func(e Expr) { n.Left = e })
		a.expr(n, "Right", n.Right, func(e Expr) { n.Right = e })
	case *PrefixOperation:
		a.expr(n, "Arg", n.Arg, func(e Expr) { n.Arg = e })
	case *PostfixOperation:
		a.expr(n, "Arg", n.Arg, func(e Expr) { n.Arg = e })
	case *ConditionalExpr:
		a.expr(n, "Cond", n.Cond, func(e Expr) { n.Cond = e })
		a.expr(n, "Then", n.Then, func(e Expr) { n.Then = e })
		a.expr(n, "Else", n.Else, func(e Expr) { n.Else = e })
	case *MethodCall:
		a.expr(n, "Instance", n.Instance, func(e Expr) { n.Instance = e })
		a.exprs(n, "Args", n.Args)
	case *NewInstance:
		a.exprs(n, "Args", n.Args)

	case *Block:
		a.applyList(n, "Stmts", &n.Stmts)
	case *DeclarationStatement:
		a.expr(n, "Init", n.Init, func(e Expr) { n.Init = e })
	case *ExpressionStatement:
		a.expr(n, "Expr", n.Expr, func(e Expr) { n.Expr = e })
	case *IfStatement:
		a.expr(n, "Cond", n.Cond, func(e Expr) { n.Cond = e })
		a.stmt(n, "Then", n.Then, func(s Stmt) { n.Then = s })
		a.stmt(n, "Else", n.Else, func(s Stmt) { n.Else = s })
	case *WhileStatement:
		a.expr(n, "Cond", n.Cond, func(e Expr) { n.Cond = e })
		a.stmt(n, "Body", n.Body, func(s Stmt) { n.Body = s })
	case *DoStatement:
		a.stmt(n, "Body", n.Body, func(s Stmt) { n.Body = s })
		a.expr(n, "Cond", n.Cond, func(e Expr) { n.Cond = e })
	case *ForStatement:
		a.applyList(n, "Init", &n.Init)
		a.expr(n, "Cond", n.Cond, func(e Expr) { n.Cond = e })
		a.applyList(n, "Update", &n.Update)
		a.stmt(n, "Body", n.Body, func(s Stmt) { n.Body = s })
	case *BreakStatement, *ContinueStatement, *EmptyStatement:
	case *LabeledStatement:
		a.stmt(n, "Body", n.Body, func(s Stmt) { n.Body = s })
	case *ReturnStatement:
		a.expr(n, "Expr", n.Expr, func(e Expr) { n.Expr = e })
	case *ThrowStatement:
		a.expr(n, "Expr", n.Expr, func(e Expr) { n.Expr = e })
	case *TryStatement:
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })
		for _, c := range n.Catches {
			a.apply(n, "Catches", nil, func(Node) {
				panic("jast: catch clauses cannot be replaced")
			}, c)
		}
		a.block(n, "Finally", n.Finally, func(b *Block) { n.Finally = b })
	case *CatchClause:
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })
	case *SwitchStatement:
		a.expr(n, "Expr", n.Expr, func(e Expr) { n.Expr = e })
		for _, c := range n.Cases {
			a.apply(n, "Cases", nil, func(Node) {
				panic("jast: switch cases cannot be replaced")
			}, c)
		}
	case *SwitchCase:
		a.exprs(n, "Exprs", n.Exprs)
		a.block(n, "Body", n.Body, func(b *Block) { n.Body = b })

	default:
		panic(fmt.Sprintf("jast: unexpected node type %T", n))
	}
}

func asExpr(n Node) Expr {
	if n == nil {
		return nil
	}
	e, ok := n.(Expr)
	if !ok {
		panic(fmt.Sprintf("jast: %T is not an expression", n))
	}
	return e
}

func asStmt(n Node) Stmt {
	if n == nil {
		return nil
	}
	s, ok := n.(Stmt)
	if !ok {
		panic(fmt.Sprintf("jast: %T is not a statement", n))
	}
	return s
}

// asBlock accepts a block or wraps any other statement in one, since some
// slots (try bodies, catch bodies) must hold a block.
func asBlock(n Node) *Block {
	switch n := n.(type) {
	case nil:
		return &Block{}
	case *Block:
		return n
	case Stmt:
		return &Block{Stmts: []Stmt{n}}
	}
	panic(fmt.Sprintf("jast: %T is not a statement", n))
}
