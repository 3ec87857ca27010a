package jast

// Node is any AST node.
type Node interface {
	node()
}

// Expr is an expression node.
type Expr interface {
	Node
	Type() Type
	expr()
}

// Literal is an expression with a compile-time value.
type Literal interface {
	Expr
	literal()
}

type (
	IntLiteral     struct{ Value int32 }
	LongLiteral    struct{ Value int64 }
	CharLiteral    struct{ Value uint16 }
	BooleanLiteral struct{ Value bool }
	StringLiteral  struct{ Value string }
	NullLiteral    struct{}
)

// VariableRef reads or writes a local or parameter.
type VariableRef struct {
	Var *Variable
}

// NameRef is an identifier that does not resolve to a local, such as a
// class or field name. The optimizer treats it as an opaque value.
type NameRef struct {
	Name string
}

// FieldRef is obj.name where obj is an arbitrary expression.
type FieldRef struct {
	Instance Expr
	Name     string
}

// BinaryOperation covers assignments, compound assignments and every infix
// operator.
type BinaryOperation struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// PrefixOperation is op arg.
type PrefixOperation struct {
	Op  UnaryOp
	Arg Expr
}

// PostfixOperation is arg op. Only ++ and -- are valid.
type PostfixOperation struct {
	Op  UnaryOp
	Arg Expr
}

// ConditionalExpr is cond ? then : else.
type ConditionalExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

// MethodCall invokes Target, or an external method when Target is nil.
type MethodCall struct {
	Instance Expr
	Name     string
	Target   *Method
	Args     []Expr
	RetType  Type
}

// NewInstance is new Class(args).
type NewInstance struct {
	Class string
	Args  []Expr
}

func (*NewInstance) node()        {}
func (*NewInstance) expr()        {}
func (e *NewInstance) Type() Type { return Type(e.Class) }

func (*IntLiteral) node()       {}
func (*LongLiteral) node()      {}
func (*CharLiteral) node()      {}
func (*BooleanLiteral) node()   {}
func (*StringLiteral) node()    {}
func (*NullLiteral) node()      {}
func (*VariableRef) node()      {}
func (*NameRef) node()          {}
func (*FieldRef) node()         {}
func (*BinaryOperation) node()  {}
func (*PrefixOperation) node()  {}
func (*PostfixOperation) node() {}
func (*ConditionalExpr) node()  {}
func (*MethodCall) node()       {}

func (*IntLiteral) expr()       {}
func (*LongLiteral) expr()      {}
func (*CharLiteral) expr()      {}
func (*BooleanLiteral) expr()   {}
func (*StringLiteral) expr()    {}
func (*NullLiteral) expr()      {}
func (*VariableRef) expr()      {}
func (*NameRef) expr()          {}
func (*FieldRef) expr()         {}
func (*BinaryOperation) expr()  {}
func (*PrefixOperation) expr()  {}
func (*PostfixOperation) expr() {}
func (*ConditionalExpr) expr()  {}
func (*MethodCall) expr()       {}

func (*IntLiteral) literal()     {}
func (*LongLiteral) literal()    {}
func (*CharLiteral) literal()    {}
func (*BooleanLiteral) literal() {}
func (*StringLiteral) literal()  {}
func (*NullLiteral) literal()    {}

func (*IntLiteral) Type() Type     { return TypeInt }
func (*LongLiteral) Type() Type    { return TypeLong }
func (*CharLiteral) Type() Type    { return TypeChar }
func (*BooleanLiteral) Type() Type { return TypeBoolean }
func (*StringLiteral) Type() Type  { return TypeString }
func (*NullLiteral) Type() Type    { return TypeNull }
func (e *VariableRef) Type() Type  { return e.Var.Type }
func (*NameRef) Type() Type        { return TypeUnknown }
func (*FieldRef) Type() Type       { return TypeUnknown }
func (e *MethodCall) Type() Type   { return e.RetType }

func (e *BinaryOperation) Type() Type {
	switch {
	case e.Op.IsAssignment():
		return e.Left.Type()
	case e.Op.IsComparison(), e.Op == OpAnd, e.Op == OpOr:
		return TypeBoolean
	case e.Op == OpAdd && (e.Left.Type() == TypeString || e.Right.Type() == TypeString):
		return TypeString
	case e.Op == OpShl || e.Op == OpShr || e.Op == OpShru:
		return promote(e.Left.Type(), TypeInt)
	}
	return promote(e.Left.Type(), e.Right.Type())
}

func (e *PrefixOperation) Type() Type {
	if e.Op == OpNot {
		return TypeBoolean
	}
	if e.Op == OpInc || e.Op == OpDec {
		return e.Arg.Type()
	}
	return promote(e.Arg.Type(), TypeInt)
}

func (e *PostfixOperation) Type() Type { return e.Arg.Type() }

func (e *ConditionalExpr) Type() Type {
	if e.Then.Type() == TypeNull {
		return e.Else.Type()
	}
	return e.Then.Type()
}

// promote applies binary numeric promotion.
func promote(a, b Type) Type {
	switch {
	case a == TypeBoolean && b == TypeBoolean:
		return TypeBoolean
	case a == TypeLong || b == TypeLong:
		return TypeLong
	case a.IsIntegral() && b.IsIntegral():
		return TypeInt
	case a == TypeUnknown || b == TypeUnknown:
		return TypeUnknown
	}
	return a
}

// Ref returns a fresh reference to v.
func Ref(v *Variable) *VariableRef {
	return &VariableRef{Var: v}
}

// CloneLiteral returns a new literal node with the same value, so the same
// constant can be substituted at several places without sharing nodes.
func CloneLiteral(l Literal) Literal {
	switch l := l.(type) {
	case *IntLiteral:
		c := *l
		return &c
	case *LongLiteral:
		c := *l
		return &c
	case *CharLiteral:
		c := *l
		return &c
	case *BooleanLiteral:
		c := *l
		return &c
	case *StringLiteral:
		c := *l
		return &c
	case *NullLiteral:
		return &NullLiteral{}
	}
	panic("jast: unknown literal")
}

// SameLiteral reports whether a and b denote the same constant of the same
// type.
func SameLiteral(a, b Literal) bool {
	switch a := a.(type) {
	case *IntLiteral:
		b, ok := b.(*IntLiteral)
		return ok && a.Value == b.Value
	case *LongLiteral:
		b, ok := b.(*LongLiteral)
		return ok && a.Value == b.Value
	case *CharLiteral:
		b, ok := b.(*CharLiteral)
		return ok && a.Value == b.Value
	case *BooleanLiteral:
		b, ok := b.(*BooleanLiteral)
		return ok && a.Value == b.Value
	case *StringLiteral:
		b, ok := b.(*StringLiteral)
		return ok && a.Value == b.Value
	case *NullLiteral:
		_, ok := b.(*NullLiteral)
		return ok
	}
	return false
}

// HasSideEffects reports whether evaluating e could write a variable, call
// a method, or throw.
func HasSideEffects(e Expr) bool {
	found := false
	Inspect(e, func(n Node) bool {
		switch n := n.(type) {
		case *MethodCall, *NewInstance:
			found = true
		case *BinaryOperation:
			if n.Op.IsAssignment() {
				found = true
			}
			if (n.Op == OpDiv || n.Op == OpMod) && n.Type().IsIntegral() && !nonZeroLiteral(n.Right) {
				found = true
			}
		case *PrefixOperation:
			if n.Op == OpInc || n.Op == OpDec {
				found = true
			}
		case *PostfixOperation:
			found = true
		case *FieldRef:
			// Field reads can throw on a null instance.
			if n.Instance != nil {
				found = true
			}
		}
		return !found
	})
	return found
}

// IsStatementExpr reports whether e may stand alone as a Java expression
// statement: an assignment, an increment or decrement, a method call or an
// instance creation.
func IsStatementExpr(e Expr) bool {
	switch e := e.(type) {
	case *MethodCall, *NewInstance, *PostfixOperation:
		return true
	case *BinaryOperation:
		return e.Op.IsAssignment()
	case *PrefixOperation:
		return e.Op.IsModifying()
	}
	return false
}

func nonZeroLiteral(e Expr) bool {
	switch e := e.(type) {
	case *IntLiteral:
		return e.Value != 0
	case *LongLiteral:
		return e.Value != 0
	case *CharLiteral:
		return e.Value != 0
	}
	return false
}
