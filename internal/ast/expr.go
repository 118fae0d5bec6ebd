package ast

import (
	"pascalc/internal/symbols"
	"pascalc/internal/types"
)

// ExprKind enumerates expression node kinds.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIntLit
	ExprRealLit
	ExprCharLit
	ExprStringLit
	ExprBoolLit
	ExprVar
	ExprUnary
	ExprBinary
	ExprCall
)

func (k ExprKind) String() string {
	switch k {
	case ExprIntLit:
		return "int-literal"
	case ExprRealLit:
		return "real-literal"
	case ExprCharLit:
		return "char-literal"
	case ExprStringLit:
		return "string-literal"
	case ExprBoolLit:
		return "bool-literal"
	case ExprVar:
		return "variable"
	case ExprUnary:
		return "unary"
	case ExprBinary:
		return "binary"
	case ExprCall:
		return "call"
	default:
		return "invalid"
	}
}

// IsLiteral reports whether the kind is a constant literal.
func (k ExprKind) IsLiteral() bool {
	return k >= ExprIntLit && k <= ExprBoolLit
}

// BinaryOp is a binary operator token.
type BinaryOp uint8

const (
	OpInvalid BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpSlash // real division
	OpDiv   // integer division
	OpMod
	OpAnd
	OpOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var binaryOpText = [...]string{
	OpInvalid: "?",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpSlash:   "/",
	OpDiv:     "div",
	OpMod:     "mod",
	OpAnd:     "and",
	OpOr:      "or",
	OpEq:      "=",
	OpNe:      "<>",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsRelational reports whether op compares its operands.
func (op BinaryOp) IsRelational() bool {
	return op >= OpEq && op <= OpGe
}

// Negate returns the relational operator with the opposite outcome.
func (op BinaryOp) Negate() BinaryOp {
	switch op {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	default:
		return OpInvalid
	}
}

// UnaryOp is a prefix operator token.
type UnaryOp uint8

const (
	UnaryInvalid UnaryOp = iota
	UnaryNeg
	UnaryPlus
	UnaryNot
)

// ModifierKind distinguishes the links of a variable's access chain.
type ModifierKind uint8

const (
	ModField ModifierKind = iota + 1
	ModIndex
)

// Modifier is one field access or array subscript.
type Modifier struct {
	Kind ModifierKind `msgpack:"kind"`

	// Field access: the field symbol and its type.
	Field symbols.SymbolID `msgpack:"field,omitempty"`

	// Array subscript: the index expression.
	Index *Expr `msgpack:"index,omitempty"`

	// Type of the value selected by this modifier.
	Type types.TypeID `msgpack:"type"`
}

// Variable is a resolved variable reference. Type is the type of the
// whole reference after all modifiers are applied.
type Variable struct {
	Sym       symbols.SymbolID `msgpack:"sym"`
	Type      types.TypeID     `msgpack:"type"`
	Modifiers []Modifier       `msgpack:"mods,omitempty"`
}

// Last returns the final modifier, if any.
func (v *Variable) Last() (*Modifier, bool) {
	if v == nil || len(v.Modifiers) == 0 {
		return nil, false
	}
	return &v.Modifiers[len(v.Modifiers)-1], true
}

// Call is a routine invocation with its actual arguments.
type Call struct {
	Routine symbols.SymbolID `msgpack:"routine"`
	Args    []*Expr          `msgpack:"args,omitempty"`
}

// Expr is a typed expression node. Text keeps the literal's source
// spelling (quotes included for char and string literals).
type Expr struct {
	Kind ExprKind     `msgpack:"kind"`
	Type types.TypeID `msgpack:"type"`
	Text string       `msgpack:"text,omitempty"`
	Line int          `msgpack:"line,omitempty"`

	Int  int64   `msgpack:"int,omitempty"`
	Real float64 `msgpack:"real,omitempty"`
	Str  string  `msgpack:"str,omitempty"`
	Bool bool    `msgpack:"bool,omitempty"`

	Var *Variable `msgpack:"var,omitempty"`

	Unary   UnaryOp `msgpack:"unary,omitempty"`
	Operand *Expr   `msgpack:"operand,omitempty"`

	Op    BinaryOp `msgpack:"op,omitempty"`
	Left  *Expr    `msgpack:"left,omitempty"`
	Right *Expr    `msgpack:"right,omitempty"`

	Call *Call `msgpack:"call,omitempty"`
}
