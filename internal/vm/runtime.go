package vm

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// Runtime provides the standard streams a program runs against.
type Runtime interface {
	Stdin() io.Reader
	Stdout() io.Writer
}

// DefaultRuntime uses the process streams.
type DefaultRuntime struct{}

// NewDefaultRuntime creates a runtime bound to os.Stdin and os.Stdout.
func NewDefaultRuntime() *DefaultRuntime { return &DefaultRuntime{} }

// Stdin returns os.Stdin.
func (r *DefaultRuntime) Stdin() io.Reader { return os.Stdin }

// Stdout returns os.Stdout.
func (r *DefaultRuntime) Stdout() io.Writer { return os.Stdout }

// TestRuntime feeds a fixed input and captures output.
type TestRuntime struct {
	in  *strings.Reader
	out bytes.Buffer
}

// NewTestRuntime creates a runtime reading stdin from the given string.
func NewTestRuntime(stdin string) *TestRuntime {
	return &TestRuntime{in: strings.NewReader(stdin)}
}

// Stdin returns the fixed input.
func (r *TestRuntime) Stdin() io.Reader { return r.in }

// Stdout returns the capture buffer.
func (r *TestRuntime) Stdout() io.Writer { return &r.out }

// Output returns everything written so far.
func (r *TestRuntime) Output() string { return r.out.String() }
