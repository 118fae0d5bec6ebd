// Package bytecode defines the instruction vocabulary emitted by the
// statement and expression generators, the Sink they emit into, and the
// class containers, listing writer and codec for lowered code.
package bytecode

import "strings"

// Op is a stack-machine opcode. The vocabulary and mnemonics follow the JVM
// subset the Pascal backend targets.
type Op uint8

const (
	NOP Op = iota
	ACONST_NULL
	ICONST_M1
	ICONST_0
	ICONST_1
	ICONST_2
	ICONST_3
	ICONST_4
	ICONST_5
	FCONST_0
	FCONST_1
	FCONST_2
	BIPUSH
	SIPUSH
	LDC

	ILOAD
	FLOAD
	ALOAD
	ISTORE
	FSTORE
	ASTORE

	IALOAD
	FALOAD
	AALOAD
	BALOAD
	CALOAD
	IASTORE
	FASTORE
	AASTORE
	BASTORE
	CASTORE

	POP
	DUP
	SWAP

	IADD
	FADD
	ISUB
	FSUB
	IMUL
	FMUL
	IDIV
	FDIV
	IREM
	FREM
	INEG
	FNEG
	IAND
	IOR
	IXOR

	I2F
	F2I
	FCMPL
	FCMPG

	IFEQ
	IFNE
	IFLT
	IFGE
	IFGT
	IFLE
	IF_ICMPEQ
	IF_ICMPNE
	IF_ICMPLT
	IF_ICMPGE
	IF_ICMPGT
	IF_ICMPLE
	GOTO
	LOOKUPSWITCH

	IRETURN
	FRETURN
	ARETURN
	RETURN

	GETSTATIC
	PUTSTATIC
	GETFIELD
	PUTFIELD
	INVOKEVIRTUAL
	INVOKESPECIAL
	INVOKESTATIC
	NEW
	NEWARRAY
	ANEWARRAY

	opCount
)

var opNames = [...]string{
	NOP: "NOP", ACONST_NULL: "ACONST_NULL",
	ICONST_M1: "ICONST_M1", ICONST_0: "ICONST_0", ICONST_1: "ICONST_1", ICONST_2: "ICONST_2",
	ICONST_3: "ICONST_3", ICONST_4: "ICONST_4", ICONST_5: "ICONST_5",
	FCONST_0: "FCONST_0", FCONST_1: "FCONST_1", FCONST_2: "FCONST_2",
	BIPUSH: "BIPUSH", SIPUSH: "SIPUSH", LDC: "LDC",
	ILOAD: "ILOAD", FLOAD: "FLOAD", ALOAD: "ALOAD", ISTORE: "ISTORE", FSTORE: "FSTORE", ASTORE: "ASTORE",
	IALOAD: "IALOAD", FALOAD: "FALOAD", AALOAD: "AALOAD", BALOAD: "BALOAD", CALOAD: "CALOAD",
	IASTORE: "IASTORE", FASTORE: "FASTORE", AASTORE: "AASTORE", BASTORE: "BASTORE", CASTORE: "CASTORE",
	POP: "POP", DUP: "DUP", SWAP: "SWAP",
	IADD: "IADD", FADD: "FADD", ISUB: "ISUB", FSUB: "FSUB", IMUL: "IMUL", FMUL: "FMUL",
	IDIV: "IDIV", FDIV: "FDIV", IREM: "IREM", FREM: "FREM", INEG: "INEG", FNEG: "FNEG",
	IAND: "IAND", IOR: "IOR", IXOR: "IXOR",
	I2F: "I2F", F2I: "F2I", FCMPL: "FCMPL", FCMPG: "FCMPG",
	IFEQ: "IFEQ", IFNE: "IFNE", IFLT: "IFLT", IFGE: "IFGE", IFGT: "IFGT", IFLE: "IFLE",
	IF_ICMPEQ: "IF_ICMPEQ", IF_ICMPNE: "IF_ICMPNE", IF_ICMPLT: "IF_ICMPLT",
	IF_ICMPGE: "IF_ICMPGE", IF_ICMPGT: "IF_ICMPGT", IF_ICMPLE: "IF_ICMPLE",
	GOTO: "GOTO", LOOKUPSWITCH: "LOOKUPSWITCH",
	IRETURN: "IRETURN", FRETURN: "FRETURN", ARETURN: "ARETURN", RETURN: "RETURN",
	GETSTATIC: "GETSTATIC", PUTSTATIC: "PUTSTATIC", GETFIELD: "GETFIELD", PUTFIELD: "PUTFIELD",
	INVOKEVIRTUAL: "INVOKEVIRTUAL", INVOKESPECIAL: "INVOKESPECIAL", INVOKESTATIC: "INVOKESTATIC",
	NEW: "NEW", NEWARRAY: "NEWARRAY", ANEWARRAY: "ANEWARRAY",
}

func (op Op) String() string {
	if op < opCount {
		return opNames[op]
	}
	return "OP?"
}

// Mnemonic is the lower-case assembler spelling.
func (op Op) Mnemonic() string { return strings.ToLower(op.String()) }

// IsBranch reports whether the instruction carries a single label operand.
func (op Op) IsBranch() bool {
	return op >= IFEQ && op <= GOTO
}

// IsConditional reports whether the branch may fall through.
func (op Op) IsConditional() bool {
	return op >= IFEQ && op <= IF_ICMPLE
}

// EndsBlock reports whether control never falls through the instruction.
func (op Op) EndsBlock() bool {
	switch op {
	case GOTO, LOOKUPSWITCH, IRETURN, FRETURN, ARETURN, RETURN:
		return true
	}
	return false
}

// IsInvoke reports whether the instruction calls a method.
func (op Op) IsInvoke() bool {
	return op == INVOKEVIRTUAL || op == INVOKESPECIAL || op == INVOKESTATIC
}
