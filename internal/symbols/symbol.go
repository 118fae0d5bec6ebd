package symbols

import "pascalc/internal/types"

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolProgram
	SymbolConstant
	SymbolEnumConstant
	SymbolType
	SymbolVariable
	SymbolParam
	SymbolField
	SymbolProcedure
	SymbolFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolProgram:
		return "program"
	case SymbolConstant:
		return "constant"
	case SymbolEnumConstant:
		return "enum-constant"
	case SymbolType:
		return "type"
	case SymbolVariable:
		return "variable"
	case SymbolParam:
		return "param"
	case SymbolField:
		return "field"
	case SymbolProcedure:
		return "procedure"
	case SymbolFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Symbol is a resolved identifier record. Routines carry their parameter
// list, locals and return type; variables and parameters carry their
// nesting level and slot. A function's Slot is the local holding its
// result.
type Symbol struct {
	Name string       `msgpack:"name"`
	Kind SymbolKind   `msgpack:"kind"`
	Type types.TypeID `msgpack:"type"`

	// Level 0 is program scope (static storage); deeper levels are
	// routine-local frames addressed by Slot.
	Level int `msgpack:"level,omitempty"`
	Slot  int `msgpack:"slot,omitempty"`

	// Record owning a field.
	Record types.TypeID `msgpack:"record,omitempty"`

	// Constant values: ordinal and integer constants use Value, real
	// constants Real, string constants Text.
	Value int64   `msgpack:"value,omitempty"`
	Real  float64 `msgpack:"real,omitempty"`
	Text  string  `msgpack:"text,omitempty"`

	Params []SymbolID `msgpack:"params,omitempty"`
	Locals []SymbolID `msgpack:"locals,omitempty"`
}

// IsRoutine reports whether the symbol is a procedure or function.
func (s *Symbol) IsRoutine() bool {
	return s != nil && (s.Kind == SymbolProcedure || s.Kind == SymbolFunction)
}

// IsStatic reports whether a variable lives in program-level static storage.
func (s *Symbol) IsStatic() bool {
	return s != nil && s.Kind == SymbolVariable && s.Level == 0
}
