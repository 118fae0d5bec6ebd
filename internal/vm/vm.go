package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"

	"pascalc/internal/bytecode"
	"pascalc/internal/trace"
)

const (
	mainName = "main"
	mainDesc = "([Ljava/lang/String;)V"

	// ctxCheckEvery is how many steps run between context checks.
	ctxCheckEvery = 4096
)

// Options configures VM execution.
type Options struct {
	// MaxSteps bounds the number of executed instructions; 0 is unbounded.
	MaxSteps int64

	Tracer trace.Tracer
	Parent uint64
}

// VM interprets one lowered class.
type VM struct {
	Class   *bytecode.Class
	RT      Runtime
	Stack   []*Frame
	Statics map[string]Value
	Steps   int64
	Halted  bool

	opts    Options
	methods map[string]*bytecode.Method // name + descriptor
	records map[string]*bytecode.Record
	descs   map[string]bytecode.MethodDescriptor
	out     *bufio.Writer
	stdin   *bufio.Reader
	stdout  *PrintStream
	eb      *errorBuilder
}

// New creates a VM for cls. Static fields start at their default values.
func New(cls *bytecode.Class, rt Runtime, opts Options) *VM {
	if rt == nil {
		rt = NewDefaultRuntime()
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	vm := &VM{
		Class:   cls,
		RT:      rt,
		Statics: make(map[string]Value, len(cls.Fields)),
		opts:    opts,
		methods: make(map[string]*bytecode.Method, len(cls.Methods)),
		records: make(map[string]*bytecode.Record, len(cls.Records)),
		descs:   make(map[string]bytecode.MethodDescriptor),
		out:     bufio.NewWriter(rt.Stdout()),
		stdout:  &PrintStream{},
	}
	vm.eb = &errorBuilder{vm: vm}
	for _, f := range cls.Fields {
		if f.Static {
			vm.Statics[cls.Name+"/"+f.Name] = zeroValue(f.Desc)
		}
	}
	for _, m := range cls.Methods {
		if m != nil {
			vm.methods[m.Name+m.Desc] = m
		}
	}
	for i := range cls.Records {
		vm.records[cls.Records[i].Name] = &cls.Records[i]
	}
	return vm
}

// Run executes main to completion. Runtime faults are returned as *Error.
func (vm *VM) Run(ctx context.Context) (err error) {
	span := trace.Begin(vm.opts.Tracer, trace.ScopeUnit, "vm:"+vm.Class.Name, vm.opts.Parent)
	defer func() {
		if ferr := vm.out.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("vm: flush output: %w", ferr)
		}
		span.WithExtra("steps", strconv.FormatInt(vm.Steps, 10))
		if err != nil {
			span.End(err.Error())
			return
		}
		span.End("")
	}()

	if err := vm.Start(); err != nil {
		return err
	}
	for !vm.Halted && len(vm.Stack) > 0 {
		if vm.Steps%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if stepErr := vm.Step(); stepErr != nil {
			return stepErr
		}
	}
	return nil
}

// Start pushes the main frame.
func (vm *VM) Start() error {
	if len(vm.Stack) != 0 || vm.Halted {
		return nil
	}
	m, ok := vm.methods[mainName+mainDesc]
	if !ok {
		return vm.eb.unknownMember("method", vm.Class.Name+"/"+mainName+mainDesc)
	}
	f := NewFrame(m)
	if len(f.Locals) > 0 {
		f.Locals[0] = RefValue(NewArray("Ljava/lang/String;", 0))
	}
	vm.Stack = append(vm.Stack, f)
	return nil
}

// Step executes exactly one instruction.
func (vm *VM) Step() (vmErr *Error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*Error); ok {
				vmErr = e
				return
			}
			panic(r)
		}
	}()
	if vm.Halted || len(vm.Stack) == 0 {
		return nil
	}
	f := vm.Stack[len(vm.Stack)-1]
	if f.PC < 0 || f.PC >= len(f.Method.Code) {
		f.PC++
		return vm.eb.errorf(PanicOutOfBounds, "execution ran off the end of %s", f.Method.Name)
	}
	in := &f.Method.Code[f.PC]
	f.PC++
	vm.Steps++
	if vm.opts.MaxSteps > 0 && vm.Steps > vm.opts.MaxSteps {
		return vm.eb.errorf(PanicStepLimit, "step budget of %d exhausted", vm.opts.MaxSteps)
	}
	vm.exec(f, in)
	return nil
}

// Output flushes buffered program output.
func (vm *VM) Output() error { return vm.out.Flush() }

func (vm *VM) pop(f *Frame) Value {
	v, ok := f.pop()
	if !ok {
		panic(vm.eb.errorf(PanicStackUnderflow, "operand stack underflow in %s", f.Method.Name))
	}
	return v
}

func (vm *VM) popInt(f *Frame) int32 {
	v := vm.pop(f)
	if v.Kind != VKInt {
		panic(vm.eb.typeMismatch(VKInt, v))
	}
	return v.I
}

func (vm *VM) popFloat(f *Frame) float32 {
	v := vm.pop(f)
	if v.Kind != VKFloat {
		panic(vm.eb.typeMismatch(VKFloat, v))
	}
	return v.F
}

func (vm *VM) popRef(f *Frame) any {
	v := vm.pop(f)
	if v.Kind != VKRef {
		panic(vm.eb.typeMismatch(VKRef, v))
	}
	return v.Ref
}

func (vm *VM) popArray(f *Frame) *Array {
	switch a := vm.popRef(f).(type) {
	case *Array:
		return a
	case nil:
		panic(vm.eb.errorf(PanicNullReference, "array is null"))
	default:
		panic(vm.eb.errorf(PanicTypeMismatch, "%s is not an array", javaString(a)))
	}
}

func (vm *VM) methodDescriptor(desc string) bytecode.MethodDescriptor {
	if md, ok := vm.descs[desc]; ok {
		return md
	}
	md, err := bytecode.ParseMethodDescriptor(desc)
	if err != nil {
		panic(vm.eb.errorf(PanicUnknownMember, "%v", err))
	}
	vm.descs[desc] = md
	return md
}

// call pushes a frame for m, moving its arguments off the caller's stack.
func (vm *VM) call(caller *Frame, m *bytecode.Method) {
	md := vm.methodDescriptor(m.Desc)
	callee := NewFrame(m)
	n := len(md.Params)
	if len(caller.Stack) < n {
		panic(vm.eb.errorf(PanicStackUnderflow, "%s needs %d arguments", m.Name, n))
	}
	args := caller.Stack[len(caller.Stack)-n:]
	if len(callee.Locals) < n {
		callee.Locals = append(callee.Locals, make([]Value, n-len(callee.Locals))...)
	}
	copy(callee.Locals, args)
	caller.Stack = caller.Stack[:len(caller.Stack)-n]
	trace.Point(vm.opts.Tracer, trace.ScopeRoutine, "call:"+m.Name, "", vm.opts.Parent)
	vm.Stack = append(vm.Stack, callee)
}

// ret pops the current frame, handing result to the caller.
func (vm *VM) ret(result *Value) {
	vm.Stack = vm.Stack[:len(vm.Stack)-1]
	if len(vm.Stack) == 0 {
		vm.Halted = true
		return
	}
	if result != nil {
		vm.Stack[len(vm.Stack)-1].push(*result)
	}
}

func (vm *VM) getStatic(ref string) Value {
	switch ref {
	case "java/lang/System/out":
		return RefValue(vm.stdout)
	case "java/lang/System/in":
		return RefValue(&InputStream{})
	}
	v, ok := vm.Statics[ref]
	if !ok {
		panic(vm.eb.unknownMember("static field", ref))
	}
	return v
}

func (vm *VM) putStatic(ref string, v Value) {
	if _, ok := vm.Statics[ref]; !ok {
		panic(vm.eb.unknownMember("static field", ref))
	}
	vm.Statics[ref] = v
}

func (vm *VM) record(f *Frame) *Record {
	switch r := vm.popRef(f).(type) {
	case *Record:
		return r
	case nil:
		panic(vm.eb.errorf(PanicNullReference, "record is null"))
	default:
		panic(vm.eb.errorf(PanicTypeMismatch, "%s is not a record", javaString(r)))
	}
}

func (vm *VM) newObject(class string) Value {
	if class == "java/util/Scanner" {
		return RefValue(&Scanner{})
	}
	def, ok := vm.records[class]
	if !ok {
		panic(vm.eb.unknownMember("class", class))
	}
	rec := &Record{Class: class, Fields: make(map[string]Value, len(def.Fields))}
	for _, fd := range def.Fields {
		rec.Fields[fd.Name] = zeroValue(fd.Desc)
	}
	return RefValue(rec)
}

func (vm *VM) stdinReader() *bufio.Reader {
	if vm.stdin == nil {
		vm.stdin = bufio.NewReader(vm.RT.Stdin())
	}
	return vm.stdin
}

// nativeError maps a library failure onto a VM panic.
func (vm *VM) nativeError(sig string, err error) *Error {
	var vmErr *Error
	var fmtErr *FormatError
	switch {
	case errors.As(err, &vmErr):
		return vmErr
	case errors.Is(err, ErrNoSuchElement):
		return vm.eb.errorf(PanicNoSuchElement, "%s: %v", sig, err)
	case errors.Is(err, ErrInputMismatch):
		return vm.eb.errorf(PanicInputMismatch, "%s: %v", sig, err)
	case errors.As(err, &fmtErr):
		return vm.eb.errorf(PanicFormat, "%v", err)
	}
	return vm.eb.errorf(PanicUnimplemented, "%s: %v", sig, err)
}
