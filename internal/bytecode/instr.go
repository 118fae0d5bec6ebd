package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"pascalc/internal/label"
)

// ConstKind tags the operand of LDC.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstInt
	ConstFloat
	ConstString
)

// SwitchCase is one key of a LOOKUPSWITCH table.
type SwitchCase struct {
	Key    int32    `msgpack:"key"`
	Label  label.ID `msgpack:"label"`
	Target int      `msgpack:"target"`
}

// Instr is one emitted instruction.
//
// Operand use by opcode:
//
//	BIPUSH, SIPUSH, xLOAD, xSTORE, NEWARRAY  Int
//	LDC                                      Const + Int | Float | Str
//	GETSTATIC .. PUTFIELD                    Str (owner/name) + Desc
//	INVOKE*                                  Str (owner/name(params)ret)
//	NEW, ANEWARRAY                           Str (class)
//	branches                                 Label, resolved into Target
//	LOOKUPSWITCH                             Cases + Label (default)
type Instr struct {
	Op     Op           `msgpack:"op"`
	Int    int64        `msgpack:"i,omitempty"`
	Float  float64      `msgpack:"f,omitempty"`
	Str    string       `msgpack:"s,omitempty"`
	Desc   string       `msgpack:"d,omitempty"`
	Const  ConstKind    `msgpack:"c,omitempty"`
	Label  label.ID     `msgpack:"l,omitempty"`
	Target int          `msgpack:"t,omitempty"`
	Cases  []SwitchCase `msgpack:"cases,omitempty"`
}

// Simple builds an operand-less instruction.
func Simple(op Op) Instr { return Instr{Op: op} }

// Local builds a load or store of a local slot.
func Local(op Op, slot int) Instr { return Instr{Op: op, Int: int64(slot)} }

// Push builds BIPUSH or SIPUSH.
func Push(op Op, v int64) Instr { return Instr{Op: op, Int: v} }

// LdcInt loads an integer constant from the pool.
func LdcInt(v int64) Instr { return Instr{Op: LDC, Const: ConstInt, Int: v} }

// LdcFloat loads a float constant from the pool.
func LdcFloat(v float64) Instr { return Instr{Op: LDC, Const: ConstFloat, Float: v} }

// LdcString loads a string constant from the pool.
func LdcString(s string) Instr { return Instr{Op: LDC, Const: ConstString, Str: s} }

// Branch builds a conditional or unconditional jump to l.
func Branch(op Op, l label.ID) Instr { return Instr{Op: op, Label: l} }

// Field builds GETSTATIC/PUTSTATIC/GETFIELD/PUTFIELD.
func Field(op Op, member, desc string) Instr { return Instr{Op: op, Str: member, Desc: desc} }

// Invoke builds an INVOKE* with a fully qualified signature.
func Invoke(op Op, signature string) Instr { return Instr{Op: op, Str: signature} }

// TypeRef builds NEW or ANEWARRAY.
func TypeRef(op Op, class string) Instr { return Instr{Op: op, Str: class} }

// NewArray builds NEWARRAY for a primitive element descriptor.
func NewArray(elemDesc string) Instr { return Instr{Op: NEWARRAY, Str: elemDesc} }

// Switch builds a LOOKUPSWITCH. cases must already be sorted by key.
func Switch(cases []SwitchCase, def label.ID) Instr {
	return Instr{Op: LOOKUPSWITCH, Cases: append([]SwitchCase(nil), cases...), Label: def}
}

// Labels returns every label the instruction references.
func (in *Instr) Labels() []label.ID {
	switch {
	case in.Op.IsBranch():
		return []label.ID{in.Label}
	case in.Op == LOOKUPSWITCH:
		out := make([]label.ID, 0, len(in.Cases)+1)
		for _, c := range in.Cases {
			out = append(out, c.Label)
		}
		return append(out, in.Label)
	}
	return nil
}

// String renders the instruction in assembler syntax.
func (in Instr) String() string {
	m := in.Op.Mnemonic()
	switch in.Op {
	case BIPUSH, SIPUSH:
		return fmt.Sprintf("%s %d", m, in.Int)
	case ILOAD, FLOAD, ALOAD, ISTORE, FSTORE, ASTORE:
		if in.Int >= 0 && in.Int <= 3 {
			return fmt.Sprintf("%s_%d", m, in.Int)
		}
		return fmt.Sprintf("%s %d", m, in.Int)
	case LDC:
		switch in.Const {
		case ConstInt:
			return fmt.Sprintf("%s %d", m, in.Int)
		case ConstFloat:
			return m + " " + formatFloat(in.Float)
		default:
			return m + " " + strconv.Quote(in.Str)
		}
	case GETSTATIC, PUTSTATIC, GETFIELD, PUTFIELD:
		return fmt.Sprintf("%s %s %s", m, in.Str, in.Desc)
	case INVOKEVIRTUAL, INVOKESPECIAL, INVOKESTATIC, NEW, ANEWARRAY:
		return m + " " + in.Str
	case NEWARRAY:
		return m + " " + primitiveName(in.Str)
	case LOOKUPSWITCH:
		var sb strings.Builder
		sb.WriteString(m)
		for _, c := range in.Cases {
			fmt.Fprintf(&sb, "\n      %d: %s", c.Key, c.Label)
		}
		fmt.Fprintf(&sb, "\n      default: %s", in.Label)
		return sb.String()
	}
	if in.Op.IsBranch() {
		return m + " " + in.Label.String()
	}
	return m
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 32)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func primitiveName(desc string) string {
	switch desc {
	case "I":
		return "int"
	case "F":
		return "float"
	case "Z":
		return "boolean"
	case "C":
		return "char"
	}
	return desc
}
