package jast

// BinaryOp is an infix operator.
type BinaryOp int

const (
	OpAssign BinaryOp = iota
	OpAssignAdd
	OpAssignSub
	OpAssignMul
	OpAssignDiv
	OpAssignMod
	OpAssignShl
	OpAssignShr
	OpAssignShru
	OpAssignBitAnd
	OpAssignBitOr
	OpAssignBitXor

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpShru
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNeq
	OpBitAnd
	OpBitOr
	OpBitXor
	OpAnd
	OpOr
)

var binarySymbols = [...]string{
	OpAssign:       "=",
	OpAssignAdd:    "+=",
	OpAssignSub:    "-=",
	OpAssignMul:    "*=",
	OpAssignDiv:    "/=",
	OpAssignMod:    "%=",
	OpAssignShl:    "<<=",
	OpAssignShr:    ">>=",
	OpAssignShru:   ">>>=",
	OpAssignBitAnd: "&=",
	OpAssignBitOr:  "|=",
	OpAssignBitXor: "^=",
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpShl:          "<<",
	OpShr:          ">>",
	OpShru:         ">>>",
	OpLt:           "<",
	OpLe:           "<=",
	OpGt:           ">",
	OpGe:           ">=",
	OpEq:           "==",
	OpNeq:          "!=",
	OpBitAnd:       "&",
	OpBitOr:        "|",
	OpBitXor:       "^",
	OpAnd:          "&&",
	OpOr:           "||",
}

func (op BinaryOp) String() string {
	return binarySymbols[op]
}

// BinaryOpFromSymbol maps Java operator text to a BinaryOp.
func BinaryOpFromSymbol(s string) (BinaryOp, bool) {
	for op, sym := range binarySymbols {
		if sym == s {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// IsAssignment reports whether op is = or a compound assignment.
func (op BinaryOp) IsAssignment() bool {
	return op <= OpAssignBitXor
}

// IsCompoundAssignment reports whether op is one of +=, -=, and so on.
func (op BinaryOp) IsCompoundAssignment() bool {
	return op > OpAssign && op <= OpAssignBitXor
}

// NonAssignment returns the arithmetic operator underlying a compound
// assignment.
func (op BinaryOp) NonAssignment() BinaryOp {
	switch op {
	case OpAssignAdd:
		return OpAdd
	case OpAssignSub:
		return OpSub
	case OpAssignMul:
		return OpMul
	case OpAssignDiv:
		return OpDiv
	case OpAssignMod:
		return OpMod
	case OpAssignShl:
		return OpShl
	case OpAssignShr:
		return OpShr
	case OpAssignShru:
		return OpShru
	case OpAssignBitAnd:
		return OpBitAnd
	case OpAssignBitOr:
		return OpBitOr
	case OpAssignBitXor:
		return OpBitXor
	}
	return op
}

// IsComparison reports whether op yields a boolean from two operands.
func (op BinaryOp) IsComparison() bool {
	return op >= OpLt && op <= OpNeq
}

// Precedence returns the binding strength of op; higher binds tighter.
func (op BinaryOp) Precedence() int {
	switch {
	case op.IsAssignment():
		return precAssign
	case op == OpOr:
		return 3
	case op == OpAnd:
		return 4
	case op == OpBitOr:
		return 5
	case op == OpBitXor:
		return 6
	case op == OpBitAnd:
		return 7
	case op == OpEq || op == OpNeq:
		return 8
	case op >= OpLt && op <= OpGe:
		return 9
	case op >= OpShl && op <= OpShru:
		return 10
	case op == OpAdd || op == OpSub:
		return 11
	}
	return 12
}

const (
	precAssign      = 1
	precConditional = 2
	precUnary       = 13
	precPostfix     = 14
	precPrimary     = 15
)

// UnaryOp is a prefix or postfix operator.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpPlus
	OpNot
	OpBitNot
	OpInc
	OpDec
)

var unarySymbols = [...]string{
	OpNeg:    "-",
	OpPlus:   "+",
	OpNot:    "!",
	OpBitNot: "~",
	OpInc:    "++",
	OpDec:    "--",
}

func (op UnaryOp) String() string {
	return unarySymbols[op]
}

// UnaryOpFromSymbol maps Java operator text to a UnaryOp.
func UnaryOpFromSymbol(s string) (UnaryOp, bool) {
	for op, sym := range unarySymbols {
		if sym == s {
			return UnaryOp(op), true
		}
	}
	return 0, false
}

// IsModifying reports whether op writes its operand.
func (op UnaryOp) IsModifying() bool {
	return op == OpInc || op == OpDec
}
