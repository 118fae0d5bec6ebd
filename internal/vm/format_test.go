package vm_test

import (
	"errors"
	"testing"

	"pascalc/internal/vm"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		pattern string
		args    []any
		want    string
	}{
		{"%d|%5d|%-5d|", []any{int32(42), int32(7), int32(7)}, "42|    7|7    |"},
		{"%d", []any{int32(-2147483648)}, "-2147483648"},
		{"%f", []any{float32(3.5)}, "3.500000"},
		{"%.2f", []any{float32(0.125)}, "0.13"},
		{"%.0f", []any{float32(2.5)}, "3"},
		{"%.2f", []any{float32(9.995)}, "10.00"},
		{"%.2f", []any{float32(0.001)}, "0.00"},
		{"%8.3f", []any{float32(-1.5)}, "  -1.500"},
		{"%f", []any{float32(1e10)}, "10000000000.000000"},
		{"%b %b %b", []any{true, false, nil}, "true false false"},
		{"%b", []any{int32(0)}, "true"},
		{"%.3b", []any{false}, "fal"},
		{"%c%c", []any{vm.Char('h'), int32('i')}, "hi"},
		{"%3c|", []any{vm.Char('x')}, "  x|"},
		{"%s %s %s %s", []any{"str", int32(5), float32(100), nil}, "str 5 100.0 null"},
		{"%s %s %s", []any{float32(1e10), float32(0.0001), float32(1234567)}, "1.0E10 1.0E-4 1234567.0"},
		{"%s", []any{float32(-0.5)}, "-0.5"},
		{"%-6s|%.2s", []any{"ab", "xyz"}, "ab    |xy"},
		{"100%%%n", nil, "100%\n"},
		{"%s", []any{vm.Char('\u00e9')}, "\u00e9"},
	}
	for _, tt := range tests {
		got, err := vm.Format(tt.pattern, tt.args)
		if err != nil {
			t.Errorf("Format(%q): %v", tt.pattern, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestFormatRejects(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		args    []any
	}{
		{"conversion mismatch", "%d", []any{float32(1)}},
		{"float as int", "%f", []any{int32(1)}},
		{"missing argument", "%d %d", []any{int32(1)}},
		{"left without width", "%-d", []any{int32(1)}},
		{"integer precision", "%.2d", []any{int32(1)}},
		{"unknown conversion", "%q", []any{"x"}},
		{"unterminated", "abc%", nil},
		{"bad code point", "%c", []any{int32(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := vm.Format(tt.pattern, tt.args)
			var fe *vm.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("got %v, want *FormatError", err)
			}
		})
	}
}
