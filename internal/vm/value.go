// Package vm executes lowered classes. It interprets the instruction subset
// the Pascal backend emits and provides the handful of library methods that
// lowered code calls (System.out, java.util.Scanner, boxing, String helpers).
package vm

import (
	"fmt"
	"strings"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// VKInvalid marks an unassigned local.
	VKInvalid ValueKind = iota
	// VKInt covers int, boolean and char values.
	VKInt
	// VKFloat is a 32-bit float.
	VKFloat
	// VKRef is an object reference or null.
	VKRef
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case VKInvalid:
		return "invalid"
	case VKInt:
		return "int"
	case VKFloat:
		return "float"
	case VKRef:
		return "ref"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is one operand stack entry, local or field.
//
// Ref holds one of: nil (null), string, *Array, *Record, *Scanner,
// *PrintStream, *InputStream, or a boxed int32, float32, bool or Char.
type Value struct {
	Kind ValueKind
	I    int32
	F    float32
	Ref  any
}

// Char is a boxed java.lang.Character. It keeps chars apart from boxed ints.
type Char rune

// Null is the null reference.
var Null = Value{Kind: VKRef}

// IntValue makes an int-kind value.
func IntValue(i int32) Value { return Value{Kind: VKInt, I: i} }

// FloatValue makes a float value.
func FloatValue(f float32) Value { return Value{Kind: VKFloat, F: f} }

// RefValue makes a reference value.
func RefValue(r any) Value { return Value{Kind: VKRef, Ref: r} }

// BoolValue makes an int-kind 0 or 1.
func BoolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

// String renders the value for traces and error messages.
func (v Value) String() string {
	switch v.Kind {
	case VKInt:
		return fmt.Sprintf("%d", v.I)
	case VKFloat:
		return javaFloatString(v.F)
	case VKRef:
		return javaString(v.Ref)
	default:
		return "<unassigned>"
	}
}

// zeroValue is the default value of a field or array element with the given
// descriptor.
func zeroValue(desc string) Value {
	switch desc {
	case "I", "Z", "C", "B", "S":
		return IntValue(0)
	case "F":
		return FloatValue(0)
	default:
		return Null
	}
}

// Array is a Java array. Elem is the element descriptor.
type Array struct {
	Elem string
	Data []Value
}

// NewArray allocates an array of n default elements.
func NewArray(elem string, n int) *Array {
	a := &Array{Elem: elem, Data: make([]Value, n)}
	z := zeroValue(elem)
	for i := range a.Data {
		a.Data[i] = z
	}
	return a
}

// Record is an instance of a generated record class.
type Record struct {
	Class  string
	Fields map[string]Value
}

// PrintStream stands for java.lang.System.out.
type PrintStream struct{}

// InputStream stands for java.lang.System.in.
type InputStream struct{}

// javaString renders a reference the way String.valueOf(Object) does.
func javaString(r any) string {
	switch x := r.(type) {
	case nil:
		return "null"
	case string:
		return x
	case int32:
		return fmt.Sprintf("%d", x)
	case float32:
		return javaFloatString(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case Char:
		return string(rune(x))
	case *Array:
		return "[" + strings.TrimSuffix(x.Elem, ";") + "@0"
	case *Record:
		return x.Class + "@0"
	case *Scanner:
		return "java.util.Scanner@0"
	case *PrintStream:
		return "java.io.PrintStream@0"
	case *InputStream:
		return "java.io.InputStream@0"
	}
	return fmt.Sprintf("%v", r)
}
