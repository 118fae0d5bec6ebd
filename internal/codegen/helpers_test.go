package codegen_test

import (
	"strings"
	"testing"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/codegen"
	"pascalc/internal/symbols"
	"pascalc/internal/testkit"
)

// lowered is one statement lowered into a fresh buffer.
type lowered struct {
	buf   *bytecode.Buffer
	gen   *codegen.Generator
	err   error
	lines []string
}

func lowerWith(t *testing.T, b *testkit.Builder, opts codegen.Options, s *ast.Stmt) lowered {
	t.Helper()
	if opts.Namespace == "" {
		opts.Namespace = b.Name
	}
	buf := bytecode.NewBuffer(nil)
	g := codegen.New(b.Types, b.Syms, buf, nil, opts)
	err := g.LowerStmt(s)
	return lowered{buf: buf, gen: g, err: err, lines: render(buf)}
}

func lowerWithRoutine(t *testing.T, b *testkit.Builder, routine symbols.SymbolID, s *ast.Stmt) lowered {
	t.Helper()
	buf := bytecode.NewBuffer(nil)
	g := codegen.New(b.Types, b.Syms, buf, nil, codegen.Options{Namespace: b.Name}).ForRoutine(routine)
	err := g.LowerStmt(s)
	return lowered{buf: buf, gen: g, err: err, lines: render(buf)}
}

// lower lowers s and fails the test on any error or on unresolved labels.
func lower(t *testing.T, b *testkit.Builder, s *ast.Stmt) lowered {
	t.Helper()
	l := lowerWith(t, b, codegen.Options{}, s)
	if l.err != nil {
		t.Fatalf("LowerStmt: %v", l.err)
	}
	if _, err := l.buf.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return l
}

// render prints the event stream, one instruction or "Lnnn:" per line.
func render(buf *bytecode.Buffer) []string {
	var out []string
	for _, ev := range buf.Events() {
		if ev.Kind == bytecode.EventLabel {
			out = append(out, ev.Label.String()+":")
			continue
		}
		out = append(out, ev.Instr.String())
	}
	return out
}

func expectLines(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("code mismatch\n got:\n\t%s\nwant:\n\t%s", strings.Join(got, "\n\t"), strings.Join(want, "\n\t"))
	}
}

func countOp(code []bytecode.Instr, op bytecode.Op) int {
	n := 0
	for _, in := range code {
		if in.Op == op {
			n++
		}
	}
	return n
}
