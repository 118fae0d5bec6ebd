package vm

import (
	"slices"

	"pascalc/internal/bytecode"
)

// native implements a library method. recv is Null for static methods.
type native func(vm *VM, recv Value, args []Value) (Value, error)

var natives = make(map[string]native)

func register(sig string, fn native) { natives[sig] = fn }

func init() {
	register("java/io/PrintStream/println()V", nativePrintln)
	register("java/io/PrintStream/println(Ljava/lang/String;)V", nativePrintlnString)
	register("java/io/PrintStream/print(Ljava/lang/String;)V", nativePrint)
	register("java/io/PrintStream/printf(Ljava/lang/String;[Ljava/lang/Object;)Ljava/io/PrintStream;", nativePrintf)

	register("java/util/Scanner/<init>(Ljava/io/InputStream;)V", scannerInit)
	register("java/util/Scanner/nextInt()I", scannerNextInt)
	register("java/util/Scanner/nextFloat()F", scannerNextFloat)
	register("java/util/Scanner/nextBoolean()Z", scannerNextBoolean)
	register("java/util/Scanner/next()Ljava/lang/String;", scannerNext)
	register("java/util/Scanner/nextLine()Ljava/lang/String;", scannerNextLine)
	register("java/util/Scanner/useDelimiter(Ljava/lang/String;)Ljava/util/Scanner;", scannerUseDelimiter)
	register("java/util/Scanner/reset()Ljava/util/Scanner;", scannerReset)

	register("java/lang/Integer/valueOf(I)Ljava/lang/Integer;", boxInt)
	register("java/lang/Float/valueOf(F)Ljava/lang/Float;", boxFloat)
	register("java/lang/Boolean/valueOf(Z)Ljava/lang/Boolean;", boxBool)
	register("java/lang/Character/valueOf(C)Ljava/lang/Character;", boxChar)

	register("java/lang/String/charAt(I)C", stringCharAt)
	register("java/lang/String/compareTo(Ljava/lang/String;)I", stringCompareTo)

	register("java/lang/Object/<init>()V", objectInit)
}

// invoke dispatches a call to a method of the class, a record constructor
// or a native.
func (vm *VM) invoke(f *Frame, in *bytecode.Instr) {
	owner, name, desc := bytecode.SplitMember(in.Str)
	if in.Op == bytecode.INVOKESTATIC && owner == vm.Class.Name {
		m, ok := vm.methods[name+desc]
		if !ok {
			panic(vm.eb.unknownMember("method", in.Str))
		}
		vm.call(f, m)
		return
	}
	md := vm.methodDescriptor(desc)
	if in.Op == bytecode.INVOKESPECIAL && name == "<init>" && len(md.Params) == 0 {
		if _, ok := vm.records[owner]; ok {
			vm.record(f)
			return
		}
	}
	fn, ok := natives[in.Str]
	if !ok {
		panic(vm.eb.unknownMember("method", in.Str))
	}
	n := len(md.Params)
	if len(f.Stack) < n {
		panic(vm.eb.errorf(PanicStackUnderflow, "%s needs %d arguments", in.Str, n))
	}
	args := append([]Value(nil), f.Stack[len(f.Stack)-n:]...)
	f.Stack = f.Stack[:len(f.Stack)-n]
	recv := Null
	if in.Op != bytecode.INVOKESTATIC {
		recv = vm.pop(f)
		if recv.Ref == nil {
			panic(vm.eb.errorf(PanicNullReference, "%s invoked on null", name))
		}
	}
	res, err := fn(vm, recv, args)
	if err != nil {
		panic(vm.nativeError(in.Str, err))
	}
	if md.Return != "V" {
		f.push(res)
	}
}

func nativePrintln(vm *VM, _ Value, _ []Value) (Value, error) {
	return Value{}, vm.out.WriteByte('\n')
}

func nativePrintlnString(vm *VM, _ Value, args []Value) (Value, error) {
	_, err := vm.out.WriteString(javaString(args[0].Ref) + "\n")
	return Value{}, err
}

func nativePrint(vm *VM, _ Value, args []Value) (Value, error) {
	_, err := vm.out.WriteString(javaString(args[0].Ref))
	return Value{}, err
}

func nativePrintf(vm *VM, recv Value, args []Value) (Value, error) {
	pattern, ok := args[0].Ref.(string)
	if !ok {
		return Value{}, vm.eb.errorf(PanicNullReference, "printf format is null")
	}
	var boxed []any
	switch arr := args[1].Ref.(type) {
	case nil:
	case *Array:
		boxed = make([]any, len(arr.Data))
		for i, v := range arr.Data {
			boxed[i] = v.Ref
		}
	default:
		return Value{}, vm.eb.errorf(PanicTypeMismatch, "printf arguments are %s", javaString(arr))
	}
	text, err := Format(pattern, boxed)
	if err != nil {
		return Value{}, err
	}
	if _, err := vm.out.WriteString(text); err != nil {
		return Value{}, err
	}
	return recv, nil
}

func scannerOf(vm *VM, recv Value) (*Scanner, error) {
	sc, ok := recv.Ref.(*Scanner)
	if !ok {
		return nil, vm.eb.errorf(PanicTypeMismatch, "%s is not a Scanner", javaString(recv.Ref))
	}
	// prompts written so far must be visible before input blocks
	if err := vm.out.Flush(); err != nil {
		return nil, err
	}
	return sc, nil
}

func scannerInit(vm *VM, recv Value, args []Value) (Value, error) {
	sc, ok := recv.Ref.(*Scanner)
	if !ok {
		return Value{}, vm.eb.errorf(PanicTypeMismatch, "%s is not a Scanner", javaString(recv.Ref))
	}
	if _, ok := args[0].Ref.(*InputStream); !ok {
		return Value{}, vm.eb.errorf(PanicTypeMismatch, "Scanner source %s is not System.in", javaString(args[0].Ref))
	}
	*sc = *NewScanner(vm.stdinReader())
	return Value{}, nil
}

func scannerNextInt(vm *VM, recv Value, _ []Value) (Value, error) {
	sc, err := scannerOf(vm, recv)
	if err != nil {
		return Value{}, err
	}
	n, err := sc.NextInt()
	return IntValue(n), err
}

func scannerNextFloat(vm *VM, recv Value, _ []Value) (Value, error) {
	sc, err := scannerOf(vm, recv)
	if err != nil {
		return Value{}, err
	}
	v, err := sc.NextFloat()
	return FloatValue(v), err
}

func scannerNextBoolean(vm *VM, recv Value, _ []Value) (Value, error) {
	sc, err := scannerOf(vm, recv)
	if err != nil {
		return Value{}, err
	}
	b, err := sc.NextBoolean()
	return BoolValue(b), err
}

func scannerNext(vm *VM, recv Value, _ []Value) (Value, error) {
	sc, err := scannerOf(vm, recv)
	if err != nil {
		return Value{}, err
	}
	tok, err := sc.Next()
	return RefValue(tok), err
}

func scannerNextLine(vm *VM, recv Value, _ []Value) (Value, error) {
	sc, err := scannerOf(vm, recv)
	if err != nil {
		return Value{}, err
	}
	line, err := sc.NextLine()
	return RefValue(line), err
}

func scannerUseDelimiter(vm *VM, recv Value, args []Value) (Value, error) {
	sc, err := scannerOf(vm, recv)
	if err != nil {
		return Value{}, err
	}
	pattern, ok := args[0].Ref.(string)
	if !ok {
		return Value{}, vm.eb.errorf(PanicNullReference, "delimiter is null")
	}
	if err := sc.UseDelimiter(pattern); err != nil {
		return Value{}, vm.eb.errorf(PanicUnimplemented, "%v", err)
	}
	return recv, nil
}

func scannerReset(vm *VM, recv Value, _ []Value) (Value, error) {
	sc, err := scannerOf(vm, recv)
	if err != nil {
		return Value{}, err
	}
	sc.Reset()
	return recv, nil
}

func objectInit(*VM, Value, []Value) (Value, error) { return Value{}, nil }

func boxInt(_ *VM, _ Value, args []Value) (Value, error)   { return RefValue(args[0].I), nil }
func boxFloat(_ *VM, _ Value, args []Value) (Value, error) { return RefValue(args[0].F), nil }
func boxBool(_ *VM, _ Value, args []Value) (Value, error)  { return RefValue(args[0].I != 0), nil }
func boxChar(_ *VM, _ Value, args []Value) (Value, error)  { return RefValue(Char(args[0].I)), nil }

// Strings index by code point rather than UTF-16 unit.
func stringCharAt(vm *VM, recv Value, args []Value) (Value, error) {
	s, ok := recv.Ref.(string)
	if !ok {
		return Value{}, vm.eb.errorf(PanicTypeMismatch, "charAt on %s", javaString(recv.Ref))
	}
	runes := []rune(s)
	i := args[0].I
	if i < 0 || int(i) >= len(runes) {
		return Value{}, vm.eb.errorf(PanicOutOfBounds, "String index %d out of range for %q", i, s)
	}
	return IntValue(runes[i]), nil
}

func stringCompareTo(vm *VM, recv Value, args []Value) (Value, error) {
	a, ok := recv.Ref.(string)
	if !ok {
		return Value{}, vm.eb.errorf(PanicTypeMismatch, "compareTo on %s", javaString(recv.Ref))
	}
	b, ok := args[0].Ref.(string)
	if !ok {
		return Value{}, vm.eb.errorf(PanicNullReference, "compareTo argument is null")
	}
	return IntValue(compareStrings(a, b)), nil
}

// compareStrings orders like String.compareTo: the difference of the first
// differing characters, else of the lengths.
func compareStrings(a, b string) int32 {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] != rb[i] {
			return ra[i] - rb[i]
		}
	}
	return int32(len(ra) - len(rb)) //nolint:gosec // string lengths fit in an int
}

// Natives lists the library methods the VM provides, for diagnostics.
func Natives() []string {
	out := make([]string, 0, len(natives))
	for sig := range natives {
		out = append(out, sig)
	}
	slices.Sort(out)
	return out
}
