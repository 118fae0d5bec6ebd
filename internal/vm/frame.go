package vm

import "pascalc/internal/bytecode"

// Frame represents a method activation record on the call stack.
type Frame struct {
	Method *bytecode.Method
	PC     int     // index of the next instruction
	Locals []Value // local variable slots
	Stack  []Value // operand stack
}

// NewFrame creates a frame for executing m with its locals unassigned.
func NewFrame(m *bytecode.Method) *Frame {
	return &Frame{
		Method: m,
		Locals: make([]Value, max(m.MaxLocals, 0)),
		Stack:  make([]Value, 0, max(m.MaxStack, 0)),
	}
}

func (f *Frame) push(v Value) { f.Stack = append(f.Stack, v) }

func (f *Frame) pop() (Value, bool) {
	n := len(f.Stack)
	if n == 0 {
		return Value{}, false
	}
	v := f.Stack[n-1]
	f.Stack = f.Stack[:n-1]
	return v, true
}

func (f *Frame) peek() (Value, bool) {
	if len(f.Stack) == 0 {
		return Value{}, false
	}
	return f.Stack[len(f.Stack)-1], true
}
