package jast

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Block is { stmts }.
type Block struct {
	Stmts []Stmt
}

// DeclarationStatement declares Var with an optional initializer.
type DeclarationStatement struct {
	Var  *Variable
	Init Expr
}

// ExpressionStatement evaluates Expr for its effects.
type ExpressionStatement struct {
	Expr Expr
}

type IfStatement struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStatement struct {
	Cond Expr
	Body Stmt
}

type DoStatement struct {
	Body Stmt
	Cond Expr
}

// ForStatement is a classic three-part for loop. Cond may be nil; Update
// holds expression statements.
type ForStatement struct {
	Init   []Stmt
	Cond   Expr
	Update []Stmt
	Body   Stmt
}

type BreakStatement struct {
	Label string
}

type ContinueStatement struct {
	Label string
}

type LabeledStatement struct {
	Label string
	Body  Stmt
}

// ReturnStatement returns Expr, which is nil in void methods.
type ReturnStatement struct {
	Expr Expr
}

type ThrowStatement struct {
	Expr Expr
}

// TryStatement is try/catch/finally. Finally may be nil.
type TryStatement struct {
	Body    *Block
	Catches []*CatchClause
	Finally *Block
}

// CatchClause binds the caught exception to Var.
type CatchClause struct {
	Var  *Variable
	Body *Block
}

// SwitchStatement dispatches on Expr. Cases keep source order, which
// defines fallthrough.
type SwitchStatement struct {
	Expr  Expr
	Cases []*SwitchCase
}

// SwitchCase is one group of labels followed by its statements. A group
// with Default set also matches any value no other label matches.
type SwitchCase struct {
	Exprs   []Expr
	Default bool
	Body    *Block
}

// EmptyStatement is a lone semicolon.
type EmptyStatement struct{}

func (*Block) node()                {}
func (*DeclarationStatement) node() {}
func (*ExpressionStatement) node()  {}
func (*IfStatement) node()          {}
func (*WhileStatement) node()       {}
func (*DoStatement) node()          {}
func (*ForStatement) node()         {}
func (*BreakStatement) node()       {}
func (*ContinueStatement) node()    {}
func (*LabeledStatement) node()     {}
func (*ReturnStatement) node()      {}
func (*ThrowStatement) node()       {}
func (*TryStatement) node()         {}
func (*CatchClause) node()          {}
func (*SwitchStatement) node()      {}
func (*SwitchCase) node()           {}
func (*EmptyStatement) node()       {}

func (*Block) stmt()                {}
func (*DeclarationStatement) stmt() {}
func (*ExpressionStatement) stmt()  {}
func (*IfStatement) stmt()          {}
func (*WhileStatement) stmt()       {}
func (*DoStatement) stmt()          {}
func (*ForStatement) stmt()         {}
func (*BreakStatement) stmt()       {}
func (*ContinueStatement) stmt()    {}
func (*LabeledStatement) stmt()     {}
func (*ReturnStatement) stmt()      {}
func (*ThrowStatement) stmt()       {}
func (*TryStatement) stmt()         {}
func (*SwitchStatement) stmt()      {}
func (*EmptyStatement) stmt()       {}

// IsAbrupt reports whether s never completes normally on its own.
func IsAbrupt(s Stmt) bool {
	switch s.(type) {
	case *ReturnStatement, *ThrowStatement, *BreakStatement, *ContinueStatement:
		return true
	}
	return false
}
