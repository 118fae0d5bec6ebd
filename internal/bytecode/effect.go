package bytecode

import "fmt"

// StackEffect returns how many operand slots the instruction pops and pushes.
func StackEffect(in *Instr) (pops, pushes int, err error) {
	switch in.Op {
	case NOP, GOTO, RETURN:
		return 0, 0, nil
	case ACONST_NULL, ICONST_M1, ICONST_0, ICONST_1, ICONST_2, ICONST_3, ICONST_4, ICONST_5,
		FCONST_0, FCONST_1, FCONST_2, BIPUSH, SIPUSH, LDC, ILOAD, FLOAD, ALOAD, NEW:
		return 0, 1, nil
	case ISTORE, FSTORE, ASTORE, POP, IFEQ, IFNE, IFLT, IFGE, IFGT, IFLE,
		LOOKUPSWITCH, IRETURN, FRETURN, ARETURN:
		return 1, 0, nil
	case IALOAD, FALOAD, AALOAD, BALOAD, CALOAD:
		return 2, 1, nil
	case IASTORE, FASTORE, AASTORE, BASTORE, CASTORE:
		return 3, 0, nil
	case DUP:
		return 1, 2, nil
	case SWAP:
		return 2, 2, nil
	case IADD, FADD, ISUB, FSUB, IMUL, FMUL, IDIV, FDIV, IREM, FREM, IAND, IOR, IXOR, FCMPL, FCMPG:
		return 2, 1, nil
	case INEG, FNEG, I2F, F2I, NEWARRAY, ANEWARRAY:
		return 1, 1, nil
	case IF_ICMPEQ, IF_ICMPNE, IF_ICMPLT, IF_ICMPGE, IF_ICMPGT, IF_ICMPLE:
		return 2, 0, nil
	case GETSTATIC:
		return 0, SlotSize(in.Desc), nil
	case PUTSTATIC:
		return SlotSize(in.Desc), 0, nil
	case GETFIELD:
		return 1, SlotSize(in.Desc), nil
	case PUTFIELD:
		return 1 + SlotSize(in.Desc), 0, nil
	case INVOKESTATIC, INVOKEVIRTUAL, INVOKESPECIAL:
		_, _, desc := SplitMember(in.Str)
		md, err := ParseMethodDescriptor(desc)
		if err != nil {
			return 0, 0, err
		}
		pops = len(md.Params)
		if in.Op != INVOKESTATIC {
			pops++ // receiver
		}
		return pops, SlotSize(md.Return), nil
	}
	return 0, 0, fmt.Errorf("bytecode: no stack effect for %s", in.Op)
}
