package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// IsValid reports whether the id refers to an interned type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates the Pascal type specs understood by the backend.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindInteger
	KindReal
	KindBoolean
	KindChar
	KindString
	KindEnum
	KindSubrange
	KindArray
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBoolean:
		return "boolean"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindEnum:
		return "enumeration"
	case KindSubrange:
		return "subrange"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Form groups kinds the way boxing and storage decisions need them.
type Form uint8

const (
	FormNone Form = iota
	FormScalar
	FormEnumeration
	FormSubrange
	FormArray
	FormRecord
)

func (f Form) String() string {
	switch f {
	case FormScalar:
		return "scalar"
	case FormEnumeration:
		return "enumeration"
	case FormSubrange:
		return "subrange"
	case FormArray:
		return "array"
	case FormRecord:
		return "record"
	default:
		return "none"
	}
}

// Field is one member of a record type.
type Field struct {
	Name string `msgpack:"name"`
	Type TypeID `msgpack:"type"`
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind   Kind     `msgpack:"kind"`
	Name   string   `msgpack:"name,omitempty"`   // enumerations and records
	Elem   TypeID   `msgpack:"elem,omitempty"`   // array element, subrange base
	Low    int64    `msgpack:"low,omitempty"`    // subrange and array index bounds
	High   int64    `msgpack:"high,omitempty"`   //
	Consts []string `msgpack:"consts,omitempty"` // enumeration constants in ordinal order
	Fields []Field  `msgpack:"fields,omitempty"` // record members in declaration order
}

// Form reports the storage form of the descriptor.
func (t *Type) Form() Form {
	switch t.Kind {
	case KindInteger, KindReal, KindBoolean, KindChar, KindString:
		return FormScalar
	case KindEnum:
		return FormEnumeration
	case KindSubrange:
		return FormSubrange
	case KindArray:
		return FormArray
	case KindRecord:
		return FormRecord
	default:
		return FormNone
	}
}

// Descriptor helpers ---------------------------------------------------------

// MakeSubrange describes low..high over an ordinal base type.
func MakeSubrange(base TypeID, low, high int64) Type {
	return Type{Kind: KindSubrange, Elem: base, Low: low, High: high}
}

// MakeArray describes array[low..high] of elem.
func MakeArray(elem TypeID, low, high int64) Type {
	return Type{Kind: KindArray, Elem: elem, Low: low, High: high}
}

// MakeEnum describes an enumeration with the given constants.
func MakeEnum(name string, consts ...string) Type {
	return Type{Kind: KindEnum, Name: name, Consts: append([]string(nil), consts...), High: int64(len(consts)) - 1}
}

// MakeRecord describes a record with the given fields.
func MakeRecord(name string, fields ...Field) Type {
	return Type{Kind: KindRecord, Name: name, Fields: append([]Field(nil), fields...)}
}
