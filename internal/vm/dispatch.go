package vm

import (
	"cmp"
	"math"
	"slices"

	"fortio.org/safecast"

	"pascalc/internal/bytecode"
)

// exec runs one instruction. Faults panic with *Error and are recovered by
// Step.
func (vm *VM) exec(f *Frame, in *bytecode.Instr) {
	switch op := in.Op; op {
	case bytecode.NOP:
	case bytecode.ACONST_NULL:
		f.push(Null)
	case bytecode.ICONST_M1, bytecode.ICONST_0, bytecode.ICONST_1, bytecode.ICONST_2,
		bytecode.ICONST_3, bytecode.ICONST_4, bytecode.ICONST_5:
		f.push(IntValue(int32(op) - int32(bytecode.ICONST_0)))
	case bytecode.FCONST_0, bytecode.FCONST_1, bytecode.FCONST_2:
		f.push(FloatValue(float32(op - bytecode.FCONST_0)))
	case bytecode.BIPUSH, bytecode.SIPUSH:
		f.push(IntValue(vm.int32Operand(in)))
	case bytecode.LDC:
		vm.execLdc(f, in)

	case bytecode.ILOAD, bytecode.FLOAD, bytecode.ALOAD:
		slot := vm.slot(f, in)
		v := f.Locals[slot]
		if v.Kind == VKInvalid {
			panic(vm.eb.errorf(PanicUseBeforeInit, "local %d of %s read before assignment", slot, f.Method.Name))
		}
		f.push(v)
	case bytecode.ISTORE:
		f.Locals[vm.slot(f, in)] = IntValue(vm.popInt(f))
	case bytecode.FSTORE:
		f.Locals[vm.slot(f, in)] = FloatValue(vm.popFloat(f))
	case bytecode.ASTORE:
		f.Locals[vm.slot(f, in)] = RefValue(vm.popRef(f))

	case bytecode.IALOAD, bytecode.FALOAD, bytecode.AALOAD, bytecode.BALOAD, bytecode.CALOAD:
		idx := vm.popInt(f)
		arr := vm.popArray(f)
		f.push(arr.Data[vm.index(arr, idx)])
	case bytecode.IASTORE, bytecode.BASTORE, bytecode.CASTORE:
		v := vm.popInt(f)
		idx := vm.popInt(f)
		arr := vm.popArray(f)
		switch op {
		case bytecode.BASTORE:
			v = int32(int8(v))
		case bytecode.CASTORE:
			v = int32(uint16(v))
		}
		arr.Data[vm.index(arr, idx)] = IntValue(v)
	case bytecode.FASTORE:
		v := vm.popFloat(f)
		idx := vm.popInt(f)
		arr := vm.popArray(f)
		arr.Data[vm.index(arr, idx)] = FloatValue(v)
	case bytecode.AASTORE:
		v := vm.popRef(f)
		idx := vm.popInt(f)
		arr := vm.popArray(f)
		arr.Data[vm.index(arr, idx)] = RefValue(v)

	case bytecode.POP:
		vm.pop(f)
	case bytecode.DUP:
		v, ok := f.peek()
		if !ok {
			panic(vm.eb.errorf(PanicStackUnderflow, "dup on an empty stack"))
		}
		f.push(v)
	case bytecode.SWAP:
		b, a := vm.pop(f), vm.pop(f)
		f.push(b)
		f.push(a)

	case bytecode.IADD, bytecode.ISUB, bytecode.IMUL, bytecode.IDIV, bytecode.IREM,
		bytecode.IAND, bytecode.IOR, bytecode.IXOR:
		b, a := vm.popInt(f), vm.popInt(f)
		f.push(IntValue(vm.intArith(op, a, b)))
	case bytecode.FADD, bytecode.FSUB, bytecode.FMUL, bytecode.FDIV, bytecode.FREM:
		b, a := vm.popFloat(f), vm.popFloat(f)
		f.push(FloatValue(floatArith(op, a, b)))
	case bytecode.INEG:
		f.push(IntValue(-vm.popInt(f)))
	case bytecode.FNEG:
		f.push(FloatValue(-vm.popFloat(f)))
	case bytecode.I2F:
		f.push(FloatValue(float32(vm.popInt(f))))
	case bytecode.F2I:
		f.push(IntValue(floatToInt(vm.popFloat(f))))
	case bytecode.FCMPL, bytecode.FCMPG:
		b, a := vm.popFloat(f), vm.popFloat(f)
		f.push(IntValue(fcmp(op, a, b)))

	case bytecode.IFEQ, bytecode.IFNE, bytecode.IFLT, bytecode.IFGE, bytecode.IFGT, bytecode.IFLE:
		if compare(op-bytecode.IFEQ, vm.popInt(f), 0) {
			f.PC = in.Target
		}
	case bytecode.IF_ICMPEQ, bytecode.IF_ICMPNE, bytecode.IF_ICMPLT,
		bytecode.IF_ICMPGE, bytecode.IF_ICMPGT, bytecode.IF_ICMPLE:
		b, a := vm.popInt(f), vm.popInt(f)
		if compare(op-bytecode.IF_ICMPEQ, a, b) {
			f.PC = in.Target
		}
	case bytecode.GOTO:
		f.PC = in.Target
	case bytecode.LOOKUPSWITCH:
		key := vm.popInt(f)
		i, found := slices.BinarySearchFunc(in.Cases, key, func(c bytecode.SwitchCase, k int32) int {
			return cmp.Compare(c.Key, k)
		})
		if found {
			f.PC = in.Cases[i].Target
		} else {
			f.PC = in.Target
		}

	case bytecode.IRETURN, bytecode.FRETURN, bytecode.ARETURN:
		v := vm.pop(f)
		vm.ret(&v)
	case bytecode.RETURN:
		vm.ret(nil)

	case bytecode.GETSTATIC:
		f.push(vm.getStatic(in.Str))
	case bytecode.PUTSTATIC:
		vm.putStatic(in.Str, vm.pop(f))
	case bytecode.GETFIELD:
		rec := vm.record(f)
		_, name, _ := bytecode.SplitMember(in.Str)
		v, ok := rec.Fields[name]
		if !ok {
			panic(vm.eb.unknownMember("field", in.Str))
		}
		f.push(v)
	case bytecode.PUTFIELD:
		v := vm.pop(f)
		rec := vm.record(f)
		_, name, _ := bytecode.SplitMember(in.Str)
		if _, ok := rec.Fields[name]; !ok {
			panic(vm.eb.unknownMember("field", in.Str))
		}
		rec.Fields[name] = v

	case bytecode.INVOKESTATIC, bytecode.INVOKEVIRTUAL, bytecode.INVOKESPECIAL:
		vm.invoke(f, in)
	case bytecode.NEW:
		f.push(vm.newObject(in.Str))
	case bytecode.NEWARRAY:
		f.push(RefValue(NewArray(in.Str, vm.arraySize(f))))
	case bytecode.ANEWARRAY:
		elem := in.Str
		if len(elem) == 0 || elem[0] != '[' {
			elem = "L" + elem + ";"
		}
		f.push(RefValue(NewArray(elem, vm.arraySize(f))))

	default:
		panic(vm.eb.errorf(PanicUnimplemented, "opcode %s", op))
	}
}

func (vm *VM) int32Operand(in *bytecode.Instr) int32 {
	v, err := safecast.Conv[int32](in.Int)
	if err != nil {
		panic(vm.eb.errorf(PanicTypeMismatch, "%s operand %d does not fit in an int", in.Op, in.Int))
	}
	return v
}

func (vm *VM) execLdc(f *Frame, in *bytecode.Instr) {
	switch in.Const {
	case bytecode.ConstInt:
		f.push(IntValue(vm.int32Operand(in)))
	case bytecode.ConstFloat:
		f.push(FloatValue(float32(in.Float)))
	case bytecode.ConstString:
		f.push(RefValue(in.Str))
	default:
		panic(vm.eb.errorf(PanicUnimplemented, "ldc constant kind %d", in.Const))
	}
}

func (vm *VM) slot(f *Frame, in *bytecode.Instr) int {
	if in.Int < 0 || in.Int >= int64(len(f.Locals)) {
		panic(vm.eb.errorf(PanicOutOfBounds, "local %d outside %s's %d locals", in.Int, f.Method.Name, len(f.Locals)))
	}
	return int(in.Int)
}

func (vm *VM) index(arr *Array, idx int32) int {
	if idx < 0 || int(idx) >= len(arr.Data) {
		panic(vm.eb.outOfBounds(int(idx), len(arr.Data)))
	}
	return int(idx)
}

func (vm *VM) arraySize(f *Frame) int {
	n := vm.popInt(f)
	if n < 0 {
		panic(vm.eb.errorf(PanicNegativeArraySize, "array size %d", n))
	}
	return int(n)
}

func (vm *VM) intArith(op bytecode.Op, a, b int32) int32 {
	switch op {
	case bytecode.IADD:
		return a + b
	case bytecode.ISUB:
		return a - b
	case bytecode.IMUL:
		return a * b
	case bytecode.IDIV, bytecode.IREM:
		if b == 0 {
			panic(vm.eb.errorf(PanicDivisionByZero, "/ by zero"))
		}
		if op == bytecode.IDIV {
			return a / b
		}
		return a % b
	case bytecode.IAND:
		return a & b
	case bytecode.IOR:
		return a | b
	default:
		return a ^ b
	}
}

func floatArith(op bytecode.Op, a, b float32) float32 {
	switch op {
	case bytecode.FADD:
		return a + b
	case bytecode.FSUB:
		return a - b
	case bytecode.FMUL:
		return a * b
	case bytecode.FDIV:
		return a / b
	default:
		return float32(math.Mod(float64(a), float64(b)))
	}
}

// floatToInt truncates toward zero, saturating, with NaN as 0.
func floatToInt(v float32) int32 {
	switch {
	case v != v:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// fcmp pushes -1, 0 or 1; an unordered comparison gives -1 for FCMPL and 1
// for FCMPG.
func fcmp(op bytecode.Op, a, b float32) int32 {
	switch {
	case a > b:
		return 1
	case a == b:
		return 0
	case a < b:
		return -1
	}
	if op == bytecode.FCMPG {
		return 1
	}
	return -1
}

// compare evaluates the condition at offset cond of the EQ NE LT GE GT LE
// sequence shared by IFxx and IF_ICMPxx.
func compare(cond bytecode.Op, a, b int32) bool {
	switch cond {
	case 0:
		return a == b
	case 1:
		return a != b
	case 2:
		return a < b
	case 3:
		return a >= b
	case 4:
		return a > b
	default:
		return a <= b
	}
}
