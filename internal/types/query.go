package types

import (
	"fmt"
	"strings"
)

// BaseType strips subranges down to the ordinal type they restrict.
func (in *Interner) BaseType(id TypeID) TypeID {
	for range in.types {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != KindSubrange {
			return id
		}
		id = tt.Elem
	}
	return id
}

// KindOf returns the kind of the base type, or KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(in.BaseType(id))
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// FormOf returns the storage form of the base type.
func (in *Interner) FormOf(id TypeID) Form {
	tt, ok := in.Lookup(in.BaseType(id))
	if !ok {
		return FormNone
	}
	return tt.Form()
}

// IsIntegral reports whether id is integer or a subrange of integer.
func (in *Interner) IsIntegral(id TypeID) bool { return in.KindOf(id) == KindInteger }

// IsReal reports whether id is the floating-point type.
func (in *Interner) IsReal(id TypeID) bool { return in.KindOf(id) == KindReal }

// IsBoolean reports whether id is boolean.
func (in *Interner) IsBoolean(id TypeID) bool { return in.KindOf(id) == KindBoolean }

// IsChar reports whether id is char or a subrange of char.
func (in *Interner) IsChar(id TypeID) bool { return in.KindOf(id) == KindChar }

// IsString reports whether id is the built-in textual type.
func (in *Interner) IsString(id TypeID) bool { return in.KindOf(id) == KindString }

// IsOrdinal reports whether values of id map onto integers.
func (in *Interner) IsOrdinal(id TypeID) bool {
	switch in.KindOf(id) {
	case KindInteger, KindChar, KindBoolean, KindEnum:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether id is integer or real.
func (in *Interner) IsNumeric(id TypeID) bool {
	k := in.KindOf(id)
	return k == KindInteger || k == KindReal
}

// ArrayLength returns the element count of an array type.
func (in *Interner) ArrayLength(id TypeID) (int64, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindArray {
		return 0, false
	}
	n := tt.High - tt.Low + 1
	if n < 0 {
		n = 0
	}
	return n, true
}

// Field returns the named member of a record type.
func (in *Interner) Field(record TypeID, name string) (Field, bool) {
	tt, ok := in.Lookup(record)
	if !ok || tt.Kind != KindRecord {
		return Field{}, false
	}
	for _, f := range tt.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// Descriptor encodes id as a JVM field descriptor.
func (in *Interner) Descriptor(id TypeID) string {
	tt, ok := in.Lookup(in.BaseType(id))
	if !ok {
		return "V"
	}
	switch tt.Kind {
	case KindVoid:
		return "V"
	case KindInteger, KindEnum:
		return "I"
	case KindReal:
		return "F"
	case KindBoolean:
		return "Z"
	case KindChar:
		return "C"
	case KindString:
		return "Ljava/lang/String;"
	case KindArray:
		return "[" + in.Descriptor(tt.Elem)
	case KindRecord:
		return "L" + tt.Name + ";"
	default:
		return "V"
	}
}

// String renders id for listings and error messages.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return fmt.Sprintf("<type %d>", id)
	}
	switch tt.Kind {
	case KindEnum, KindRecord:
		if tt.Name != "" {
			return tt.Name
		}
		return tt.Kind.String()
	case KindSubrange:
		return fmt.Sprintf("%d..%d", tt.Low, tt.High)
	case KindArray:
		return fmt.Sprintf("array[%d..%d] of %s", tt.Low, tt.High, in.String(tt.Elem))
	default:
		return tt.Kind.String()
	}
}
