package constants

import (
	"strconv"
	"unicode/utf16"

	"github.com/l3aro/go-gflow/pkg/jast"
)

// LookupFunc returns the constant a variable holds, if any.
type LookupFunc func(*jast.Variable) (jast.Literal, bool)

// Evaluate folds e to a literal using Java semantics: 32 and 64 bit two's
// complement wraparound, char promotion, masked shift distances and string
// concatenation. Expressions with side effects, integer division by zero
// and anything involving a non-constant operand do not fold. A nil lookup
// treats every variable as non-constant.
func Evaluate(e jast.Expr, lookup LookupFunc) (jast.Literal, bool) {
	switch e := e.(type) {
	case jast.Literal:
		return e, true
	case *jast.VariableRef:
		if lookup == nil {
			return nil, false
		}
		return lookup(e.Var)
	case *jast.BinaryOperation:
		return evalBinary(e, lookup)
	case *jast.PrefixOperation:
		arg, ok := Evaluate(e.Arg, lookup)
		if !ok {
			return nil, false
		}
		return evalUnary(e.Op, arg)
	case *jast.ConditionalExpr:
		cond, ok := Evaluate(e.Cond, lookup)
		if !ok {
			return nil, false
		}
		b, ok := cond.(*jast.BooleanLiteral)
		if !ok {
			return nil, false
		}
		var lit jast.Literal
		if b.Value {
			lit, ok = Evaluate(e.Then, lookup)
		} else {
			lit, ok = Evaluate(e.Else, lookup)
		}
		if !ok {
			return nil, false
		}
		return Coerce(lit, e.Type())
	}
	return nil, false
}

func evalBinary(e *jast.BinaryOperation, lookup LookupFunc) (jast.Literal, bool) {
	if e.Op.IsAssignment() {
		return nil, false
	}
	left, ok := Evaluate(e.Left, lookup)
	if !ok {
		return nil, false
	}

	// && and || only evaluate the right operand when needed.
	if e.Op == jast.OpAnd || e.Op == jast.OpOr {
		l, ok := left.(*jast.BooleanLiteral)
		if !ok {
			return nil, false
		}
		if l.Value == (e.Op == jast.OpOr) {
			return &jast.BooleanLiteral{Value: l.Value}, true
		}
		right, ok := Evaluate(e.Right, lookup)
		if !ok {
			return nil, false
		}
		if _, ok := right.(*jast.BooleanLiteral); !ok {
			return nil, false
		}
		return right, true
	}

	right, ok := Evaluate(e.Right, lookup)
	if !ok {
		return nil, false
	}
	return EvalBinary(e.Op, left, right)
}

// EvalBinary applies a non-assignment, non-short-circuit operator to two
// literals.
func EvalBinary(op jast.BinaryOp, left, right jast.Literal) (jast.Literal, bool) {
	if op == jast.OpAdd && (isString(left) || isString(right)) {
		ls, ok1 := literalString(left)
		rs, ok2 := literalString(right)
		if !ok1 || !ok2 {
			return nil, false
		}
		return &jast.StringLiteral{Value: ls + rs}, true
	}

	lb, lok := left.(*jast.BooleanLiteral)
	rb, rok := right.(*jast.BooleanLiteral)
	if lok && rok {
		return evalBoolean(op, lb.Value, rb.Value)
	}
	if lok || rok {
		return nil, false
	}

	if _, ok := left.(*jast.NullLiteral); ok {
		if _, ok := right.(*jast.NullLiteral); ok {
			switch op {
			case jast.OpEq:
				return &jast.BooleanLiteral{Value: true}, true
			case jast.OpNeq:
				return &jast.BooleanLiteral{Value: false}, true
			}
		}
		return nil, false
	}

	l, lLong, ok1 := integral(left)
	r, rLong, ok2 := integral(right)
	if !ok1 || !ok2 {
		return nil, false
	}

	switch op {
	case jast.OpShl, jast.OpShr, jast.OpShru:
		if lLong {
			return evalShift64(op, l, r), true
		}
		return evalShift32(op, int32(l), r), true
	}

	if op.IsComparison() {
		var v bool
		switch op {
		case jast.OpLt:
			v = l < r
		case jast.OpLe:
			v = l <= r
		case jast.OpGt:
			v = l > r
		case jast.OpGe:
			v = l >= r
		case jast.OpEq:
			v = l == r
		case jast.OpNeq:
			v = l != r
		}
		return &jast.BooleanLiteral{Value: v}, true
	}

	if lLong || rLong {
		v, ok := arith64(op, l, r)
		if !ok {
			return nil, false
		}
		return &jast.LongLiteral{Value: v}, true
	}
	v, ok := arith32(op, int32(l), int32(r))
	if !ok {
		return nil, false
	}
	return &jast.IntLiteral{Value: v}, true
}

func evalBoolean(op jast.BinaryOp, l, r bool) (jast.Literal, bool) {
	var v bool
	switch op {
	case jast.OpBitAnd, jast.OpAnd:
		v = l && r
	case jast.OpBitOr, jast.OpOr:
		v = l || r
	case jast.OpBitXor, jast.OpNeq:
		v = l != r
	case jast.OpEq:
		v = l == r
	default:
		return nil, false
	}
	return &jast.BooleanLiteral{Value: v}, true
}

func arith32(op jast.BinaryOp, l, r int32) (int32, bool) {
	switch op {
	case jast.OpAdd:
		return l + r, true
	case jast.OpSub:
		return l - r, true
	case jast.OpMul:
		return l * r, true
	case jast.OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case jast.OpMod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case jast.OpBitAnd:
		return l & r, true
	case jast.OpBitOr:
		return l | r, true
	case jast.OpBitXor:
		return l ^ r, true
	}
	return 0, false
}

func arith64(op jast.BinaryOp, l, r int64) (int64, bool) {
	switch op {
	case jast.OpAdd:
		return l + r, true
	case jast.OpSub:
		return l - r, true
	case jast.OpMul:
		return l * r, true
	case jast.OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case jast.OpMod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case jast.OpBitAnd:
		return l & r, true
	case jast.OpBitOr:
		return l | r, true
	case jast.OpBitXor:
		return l ^ r, true
	}
	return 0, false
}

func evalShift32(op jast.BinaryOp, l int32, r int64) jast.Literal {
	n := uint(r & 31)
	var v int32
	switch op {
	case jast.OpShl:
		v = l << n
	case jast.OpShr:
		v = l >> n
	case jast.OpShru:
		v = int32(uint32(l) >> n)
	}
	return &jast.IntLiteral{Value: v}
}

func evalShift64(op jast.BinaryOp, l, r int64) jast.Literal {
	n := uint(r & 63)
	var v int64
	switch op {
	case jast.OpShl:
		v = l << n
	case jast.OpShr:
		v = l >> n
	case jast.OpShru:
		v = int64(uint64(l) >> n)
	}
	return &jast.LongLiteral{Value: v}
}

func evalUnary(op jast.UnaryOp, arg jast.Literal) (jast.Literal, bool) {
	if b, ok := arg.(*jast.BooleanLiteral); ok {
		if op == jast.OpNot {
			return &jast.BooleanLiteral{Value: !b.Value}, true
		}
		return nil, false
	}
	v, long, ok := integral(arg)
	if !ok {
		return nil, false
	}
	switch op {
	case jast.OpNeg:
		v = -v
	case jast.OpPlus:
	case jast.OpBitNot:
		v = ^v
	default:
		return nil, false
	}
	if long {
		return &jast.LongLiteral{Value: v}, true
	}
	return &jast.IntLiteral{Value: int32(v)}, true
}

// integral widens an int, char or long literal to int64 and reports
// whether it was a long.
func integral(l jast.Literal) (int64, bool, bool) {
	switch l := l.(type) {
	case *jast.IntLiteral:
		return int64(l.Value), false, true
	case *jast.CharLiteral:
		return int64(l.Value), false, true
	case *jast.LongLiteral:
		return l.Value, true, true
	}
	return 0, false, false
}

func isString(l jast.Literal) bool {
	_, ok := l.(*jast.StringLiteral)
	return ok
}

// literalString converts a literal the way string concatenation does.
func literalString(l jast.Literal) (string, bool) {
	switch l := l.(type) {
	case *jast.StringLiteral:
		return l.Value, true
	case *jast.IntLiteral:
		return strconv.FormatInt(int64(l.Value), 10), true
	case *jast.LongLiteral:
		return strconv.FormatInt(l.Value, 10), true
	case *jast.CharLiteral:
		return string(utf16.Decode([]uint16{l.Value})), true
	case *jast.BooleanLiteral:
		return strconv.FormatBool(l.Value), true
	case *jast.NullLiteral:
		return "null", true
	}
	return "", false
}

// Coerce converts lit to a literal of type t, applying the implicit
// widening and constant narrowing conversions of assignment. It fails when
// no such conversion exists.
func Coerce(lit jast.Literal, t jast.Type) (jast.Literal, bool) {
	if lit.Type() == t {
		return lit, true
	}
	v, _, isInt := integral(lit)
	switch t {
	case jast.TypeLong:
		if isInt {
			return &jast.LongLiteral{Value: v}, true
		}
	case jast.TypeInt:
		if c, ok := lit.(*jast.CharLiteral); ok {
			return &jast.IntLiteral{Value: int32(c.Value)}, true
		}
	case jast.TypeChar:
		if i, ok := lit.(*jast.IntLiteral); ok && i.Value >= 0 && i.Value <= 0xFFFF {
			return &jast.CharLiteral{Value: uint16(i.Value)}, true
		}
	case jast.TypeString:
		if _, ok := lit.(*jast.NullLiteral); ok {
			return lit, true
		}
	default:
		if !t.IsPrimitive() {
			switch lit.(type) {
			case *jast.StringLiteral, *jast.NullLiteral:
				return lit, true
			}
		}
	}
	return nil, false
}
