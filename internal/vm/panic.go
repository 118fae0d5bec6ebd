package vm

import (
	"fmt"
	"strings"
)

// PanicCode identifies the type of VM panic.
type PanicCode int

// Stable panic codes - do not change values.
const (
	PanicUseBeforeInit     PanicCode = 1001 // VM1001: local read before assignment
	PanicTypeMismatch      PanicCode = 1002 // VM1002: operand of the wrong kind
	PanicOutOfBounds       PanicCode = 1003 // VM1003: array or string index out of bounds
	PanicNullReference     PanicCode = 1004 // VM1004: null dereference
	PanicDivisionByZero    PanicCode = 1005 // VM1005: integer division by zero
	PanicUnknownMember     PanicCode = 1006 // VM1006: missing method, field or class
	PanicFormat            PanicCode = 1007 // VM1007: bad printf format or argument
	PanicInputMismatch     PanicCode = 1008 // VM1008: input token does not match
	PanicNoSuchElement     PanicCode = 1009 // VM1009: input exhausted
	PanicStepLimit         PanicCode = 1010 // VM1010: step budget exhausted
	PanicNegativeArraySize PanicCode = 1011 // VM1011: negative array size
	PanicStackUnderflow    PanicCode = 1012 // VM1012: operand stack underflow
	PanicUnimplemented     PanicCode = 1999 // VM1999: unimplemented opcode
)

// String returns the code as "VM1001" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// Error lets a bare code be the target of errors.Is.
func (c PanicCode) Error() string { return c.String() }

// BacktraceFrame represents one frame in the panic backtrace.
type BacktraceFrame struct {
	Method string
	PC     int
}

// Error represents a runtime panic in the VM.
type Error struct {
	Code      PanicCode
	Message   string
	Method    string           // method executing when the panic occurred
	PC        int              // index of the faulting instruction
	Backtrace []BacktraceFrame // stack frames from top to bottom
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("panic %s: %s", e.Code, e.Message)
}

// Is matches a PanicCode or another *Error with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case PanicCode:
		return e.Code == t
	case *Error:
		return t != nil && e.Code == t.Code
	}
	return false
}

// Report renders the panic with its backtrace.
func (e *Error) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "panic %s: %s\n", e.Code, e.Message)
	if e.Method != "" {
		fmt.Fprintf(&sb, "at %s+%d\n", e.Method, e.PC)
	}
	if len(e.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, frame := range e.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s+%d\n", i, frame.Method, frame.PC)
		}
	}
	return sb.String()
}

// errorBuilder helps construct Error values.
type errorBuilder struct {
	vm *VM
}

func (eb *errorBuilder) makeError(code PanicCode, msg string) *Error {
	e := &Error{Code: code, Message: msg}
	stack := eb.vm.Stack
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		e.Method = top.Method.Name
		e.PC = top.PC - 1
	}
	e.Backtrace = make([]BacktraceFrame, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		// PC has already moved past the executing instruction
		e.Backtrace[len(stack)-1-i] = BacktraceFrame{Method: stack[i].Method.Name, PC: stack[i].PC - 1}
	}
	return e
}

func (eb *errorBuilder) errorf(code PanicCode, format string, args ...any) *Error {
	return eb.makeError(code, fmt.Sprintf(format, args...))
}

func (eb *errorBuilder) typeMismatch(want ValueKind, got Value) *Error {
	return eb.errorf(PanicTypeMismatch, "expected %s operand, got %s", want, got.Kind)
}

func (eb *errorBuilder) outOfBounds(index, length int) *Error {
	return eb.errorf(PanicOutOfBounds, "index %d out of bounds for length %d", index, length)
}

func (eb *errorBuilder) unknownMember(kind, ref string) *Error {
	return eb.errorf(PanicUnknownMember, "unknown %s %s", kind, ref)
}
