package codegen_test

import (
	"testing"

	"pascalc/internal/ast"
	"pascalc/internal/codegen"
	"pascalc/internal/testkit"
)

const (
	getOut = "getstatic java/lang/System/out Ljava/io/PrintStream;"
	printf = "invokevirtual java/io/PrintStream/printf(Ljava/lang/String;[Ljava/lang/Object;)Ljava/io/PrintStream;"
)

func TestWriteMixesLiteralsAndFields(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)
	r := b.Global("r", b.B.Real)

	l := lower(t, b, testkit.Write(testkit.Arg(b.Str("X=")), testkit.Arg(b.V(n)), testkit.Arg(b.V(r))))
	expectLines(t, l.lines, []string{
		getOut,
		`ldc "X=%d%f"`,
		"iconst_2",
		"anewarray java/lang/Object",
		"dup",
		"iconst_0",
		"getstatic Demo/n I",
		"invokestatic java/lang/Integer/valueOf(I)Ljava/lang/Integer;",
		"aastore",
		"dup",
		"iconst_1",
		"getstatic Demo/r F",
		"invokestatic java/lang/Float/valueOf(F)Ljava/lang/Float;",
		"aastore",
		printf,
		"pop",
	})
	if d := l.buf.Depth(); d != 0 {
		t.Fatalf("stack depth after write = %d", d)
	}
}

func TestWriteOnlyLiterals(t *testing.T) {
	b := testkit.NewProgram("Demo")
	l := lower(t, b, testkit.Write(testkit.Arg(b.Str("only literal"))))
	expectLines(t, l.lines, []string{
		getOut,
		`ldc "only literal"`,
		"invokevirtual java/io/PrintStream/print(Ljava/lang/String;)V",
	})

	l = lower(t, b, testkit.Writeln(testkit.Arg(b.Str("a")), testkit.Arg(b.Char('b'))))
	expectLines(t, l.lines, []string{
		getOut,
		`ldc "ab\n"`,
		"invokevirtual java/io/PrintStream/print(Ljava/lang/String;)V",
	})
}

func TestWriteLiteralPercentIsNotEscapedForPrint(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)
	l := lower(t, b, testkit.Write(testkit.Arg(b.Str("50%"))))
	if l.lines[1] != `ldc "50%"` {
		t.Fatalf("print text = %s", l.lines[1])
	}
	l = lower(t, b, testkit.Write(testkit.Arg(b.Str("50%")), testkit.Arg(b.V(n))))
	if l.lines[1] != `ldc "50%%%d"` {
		t.Fatalf("printf format = %s", l.lines[1])
	}
}

func TestWritelnWithoutArguments(t *testing.T) {
	b := testkit.NewProgram("Demo")
	l := lower(t, b, testkit.Writeln())
	expectLines(t, l.lines, []string{getOut, "invokevirtual java/io/PrintStream/println()V"})

	l = lower(t, b, testkit.Write())
	expectLines(t, l.lines, []string{getOut, `ldc ""`, "invokevirtual java/io/PrintStream/print(Ljava/lang/String;)V"})
}

func TestBuildFormat(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)
	x := b.Global("x", b.B.Real)
	ok := b.Global("ok", b.B.Boolean)
	c := b.Global("c", b.B.Char)
	s := b.Global("s", b.B.String)
	color, _ := b.Enum("Color", "Red", "Green")
	e := b.Global("e", color)

	tests := []struct {
		name    string
		args    []ast.WriteArg
		newline bool
		want    string
		exprs   int
	}{
		{"flags", []ast.WriteArg{testkit.Arg(b.V(n)), testkit.Arg(b.V(x)), testkit.Arg(b.V(ok)), testkit.Arg(b.V(c)), testkit.Arg(b.V(s)), testkit.Arg(b.V(e))}, false, "%d%f%b%c%s%d", 6},
		{"width", []ast.WriteArg{testkit.ArgW(b.V(n), 5, -1)}, false, "%5d", 1},
		{"left aligned", []ast.WriteArg{testkit.ArgW(b.V(x), -8, 2)}, true, "%-8.2f\n", 1},
		{"precision only", []ast.WriteArg{testkit.ArgW(b.V(x), 0, 3)}, false, "%.3f", 1},
		{"percent", []ast.WriteArg{testkit.Arg(b.Str("100%")), testkit.Arg(b.V(n))}, false, "100%%%d", 1},
		{"literal with width", []ast.WriteArg{testkit.ArgW(b.Str("ab"), 4, -1)}, false, "  ab", 0},
		{"literal left aligned", []ast.WriteArg{testkit.ArgW(b.Str("ab"), -4, -1), testkit.Arg(b.V(n))}, false, "ab  %d", 1},
		{"literal truncated", []ast.WriteArg{testkit.ArgW(b.Str("abcdef"), 4, 2)}, false, "  ab", 0},
		{"literal wider than field", []ast.WriteArg{testkit.ArgW(b.Str("abcdef"), 3, -1)}, false, "abcdef", 0},
		{"char literal with width", []ast.WriteArg{testkit.ArgW(b.Char('%'), 3, -1)}, false, "  %%", 0},
		{"char literal folds", []ast.WriteArg{testkit.Arg(b.Char('%'))}, false, "%%", 0},
		{"empty", nil, true, "\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := codegen.BuildFormat(b.Types, tt.args, tt.newline)
			if got := f.String(); got != tt.want {
				t.Fatalf("format = %q, want %q", got, tt.want)
			}
			if got := f.ExprCount(); got != tt.exprs {
				t.Fatalf("ExprCount = %d, want %d", got, tt.exprs)
			}
		})
	}
}

func TestWriteBoxesEveryScalarKind(t *testing.T) {
	b := testkit.NewProgram("Demo")
	ok := b.Global("ok", b.B.Boolean)
	c := b.Global("c", b.B.Char)
	s := b.Global("s", b.B.String)

	l := lower(t, b, testkit.Writeln(testkit.Arg(b.V(ok)), testkit.Arg(b.V(c)), testkit.Arg(b.V(s))))
	want := map[string]bool{
		"invokestatic java/lang/Boolean/valueOf(Z)Ljava/lang/Boolean;":       false,
		"invokestatic java/lang/Character/valueOf(C)Ljava/lang/Character;": false,
	}
	for _, line := range l.lines {
		if _, ok := want[line]; ok {
			want[line] = true
		}
	}
	for sig, seen := range want {
		if !seen {
			t.Errorf("missing %s", sig)
		}
	}
	// strings go into the array as they are
	for i, line := range l.lines {
		if line == "getstatic Demo/s Ljava/lang/String;" && l.lines[i+1] != "aastore" {
			t.Fatalf("string argument is followed by %q", l.lines[i+1])
		}
	}
}

func TestWriteLiteralWithWidthTakesNoSlot(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)

	l := lower(t, b, testkit.Write(testkit.ArgW(b.Str("ab"), 4, -1), testkit.Arg(b.V(n)), testkit.ArgW(b.Char('c'), -2, -1)))
	expectLines(t, l.lines, []string{
		getOut,
		`ldc "  ab%dc "`,
		"iconst_1",
		"anewarray java/lang/Object",
		"dup",
		"iconst_0",
		"getstatic Demo/n I",
		"invokestatic java/lang/Integer/valueOf(I)Ljava/lang/Integer;",
		"aastore",
		printf,
		"pop",
	})
	stores := 0
	for _, line := range l.lines {
		if line == "aastore" {
			stores++
		}
	}
	if stores != 1 {
		t.Fatalf("aastore count = %d, want one per non-literal argument", stores)
	}

	l = lower(t, b, testkit.Writeln(testkit.ArgW(b.Str("x"), 3, -1)))
	expectLines(t, l.lines, []string{
		getOut,
		`ldc "  x\n"`,
		"invokevirtual java/io/PrintStream/print(Ljava/lang/String;)V",
	})
}
