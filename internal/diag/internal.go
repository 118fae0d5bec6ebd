package diag

import (
	"errors"
	"fmt"
	"strings"
)

// InternalError reports a violated precondition inside the backend.
type InternalError struct {
	Code    Code
	Op      string // lowering routine or sink operation
	Line    int    // source line of the offending node, 0 if unknown
	Message string
}

// Internal builds an *InternalError with a formatted message.
func Internal(code Code, op string, format string, args ...any) *InternalError {
	return &InternalError{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// AtLine returns the error with its source line filled in unless one is set.
func (e *InternalError) AtLine(line int) *InternalError {
	if e != nil && e.Line == 0 {
		e.Line = line
	}
	return e
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	var sb strings.Builder
	sb.WriteString("internal compiler error ")
	sb.WriteString(e.Code.ID())
	if e.Op != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Op)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	sb.WriteString(": ")
	if e.Message != "" {
		sb.WriteString(e.Message)
	} else {
		sb.WriteString(e.Code.Title())
	}
	return sb.String()
}

// Is matches another *InternalError or a bare Code with the same code.
func (e *InternalError) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *InternalError:
		return t != nil && e.Code == t.Code
	}
	return false
}

// AsInternal unwraps err to an *InternalError.
func AsInternal(err error) (*InternalError, bool) {
	var ice *InternalError
	if errors.As(err, &ice) {
		return ice, true
	}
	return nil, false
}

// CodeOf returns the code of the first *InternalError in err's chain.
func CodeOf(err error) Code {
	if ice, ok := AsInternal(err); ok {
		return ice.Code
	}
	return UnknownCode
}
