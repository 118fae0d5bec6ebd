package codegen_test

import (
	"context"
	"errors"
	"testing"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/codegen"
	"pascalc/internal/diag"
	"pascalc/internal/testkit"
	"pascalc/internal/trace"
	"pascalc/internal/types"
)

// sampleStatements returns one well-formed statement per kind.
func sampleStatements(b *testkit.Builder) map[ast.StmtKind]*ast.Stmt {
	n := b.Global("n", b.B.Integer)
	p := b.Procedure("p", testkit.P("a", b.B.Integer))
	f := b.Function("f", b.B.Integer)
	lt := b.Bin(ast.OpLt, b.V(n), b.Int(10))
	return map[ast.StmtKind]*ast.Stmt{
		ast.StmtEmpty:    {Kind: ast.StmtEmpty},
		ast.StmtCompound: testkit.Block(b.Set(n, b.Int(1))),
		ast.StmtAssign:   b.Set(n, b.Int(2)),
		ast.StmtIf:       testkit.If(lt, b.Set(n, b.Int(3)), nil),
		ast.StmtCase:     testkit.Case(b.V(n), testkit.Branch(b.Set(n, b.Int(4)), 1, 2)),
		ast.StmtRepeat:   testkit.Repeat(lt, b.Set(n, b.Int(5))),
		ast.StmtWhile:    testkit.While(lt, b.Set(n, b.Int(6))),
		ast.StmtFor:      b.For(n, b.Int(1), b.Int(3), testkit.Block()),
		ast.StmtProcCall: testkit.ProcCall(p.ID, b.V(n)),
		ast.StmtFuncCall: testkit.FuncCall(f.ID),
		ast.StmtWrite:    testkit.Write(testkit.Arg(b.V(n))),
		ast.StmtWriteln:  testkit.Writeln(testkit.Arg(b.Str("x"))),
		ast.StmtRead:     testkit.Read(b.Ref(n)),
		ast.StmtReadln:   testkit.Readln(),
	}
}

func TestEveryStatementKindLowers(t *testing.T) {
	b := testkit.NewProgram("Demo")
	samples := sampleStatements(b)
	for k := ast.StmtKind(0); k < ast.StmtKindCount; k++ {
		s, ok := samples[k]
		if !ok {
			t.Fatalf("no sample for statement kind %s", k)
		}
		t.Run(k.String(), func(t *testing.T) {
			l := lower(t, b, s)
			if d := l.buf.Depth(); d != 0 {
				t.Fatalf("operand stack depth %d after %s", d, k)
			}
			if got := l.gen.Stats().Statements[k]; got < 1 {
				t.Fatalf("statement count for %s = %d", k, got)
			}
		})
	}
}

func TestUnknownStatementKind(t *testing.T) {
	b := testkit.NewProgram("Demo")
	l := lowerWith(t, b, codegen.Options{}, &ast.Stmt{Kind: ast.StmtKindCount, Line: 7})
	if !errors.Is(l.err, diag.ICEUnsupportedStmt) {
		t.Fatalf("got %v, want ICEUnsupportedStmt", l.err)
	}
}

func TestMissingPayload(t *testing.T) {
	b := testkit.NewProgram("Demo")
	for _, k := range []ast.StmtKind{ast.StmtAssign, ast.StmtIf, ast.StmtCase, ast.StmtWhile, ast.StmtFor, ast.StmtProcCall} {
		l := lowerWith(t, b, codegen.Options{}, &ast.Stmt{Kind: k})
		if l.err == nil {
			t.Fatalf("%s without payload lowered", k)
		}
		if _, ok := diag.AsInternal(l.err); !ok {
			t.Fatalf("%s: %v is not an internal error", k, l.err)
		}
	}
}

func TestStatementTracePoints(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	l := lowerWith(t, b, codegen.Options{Tracer: ring}, testkit.Block(b.Set(n, b.Int(1)), b.Set(n, b.Int(2))))
	if l.err != nil {
		t.Fatal(l.err)
	}
	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Name != "stmt:compound" || events[1].Name != "stmt:assignment" {
		t.Fatalf("names: %q %q", events[0].Name, events[1].Name)
	}
}

func TestLowerProgram(t *testing.T) {
	b := testkit.NewProgram("Demo")
	pt, _ := b.Record("Point", types.Field{Name: "x", Type: b.B.Integer}, types.Field{Name: "y", Type: b.B.Integer})
	b.Global("p", pt)
	x := b.Global("x", b.B.Integer)
	sq := b.Function("sq", b.B.Integer, testkit.P("n", b.B.Integer))
	sq.Body(b.Set(sq.ID, b.Bin(ast.OpMul, b.V(sq.Params[0]), b.V(sq.Params[0]))))
	prog := b.Program(b.Set(x, b.Call(sq.ID, b.Int(4))))

	out, err := codegen.LowerProgram(context.Background(), prog, b.Types, b.Syms, codegen.ProgramOptions{Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	cls := out.Class
	if cls.Name != "Demo" || cls.Super != "java/lang/Object" {
		t.Fatalf("class %s extends %s", cls.Name, cls.Super)
	}
	wantFields := []bytecode.FieldDef{
		{Name: "_sysin", Desc: "Ljava/util/Scanner;", Static: true},
		{Name: "p", Desc: "LPoint;", Static: true},
		{Name: "x", Desc: "I", Static: true},
	}
	if len(cls.Fields) != len(wantFields) {
		t.Fatalf("fields = %+v", cls.Fields)
	}
	for i := range wantFields {
		if cls.Fields[i] != wantFields[i] {
			t.Fatalf("field %d = %+v, want %+v", i, cls.Fields[i], wantFields[i])
		}
	}
	if _, ok := cls.Record("Point"); !ok {
		t.Fatal("record class Point missing")
	}

	m, ok := cls.Method("sq")
	if !ok {
		t.Fatal("method sq missing")
	}
	if m.Desc != "(I)I" || !m.Static || m.MaxLocals != 2 || m.MaxStack != 2 {
		t.Fatalf("sq: desc %s static %v locals %d stack %d", m.Desc, m.Static, m.MaxLocals, m.MaxStack)
	}
	var code []string
	for _, in := range m.Code {
		code = append(code, in.String())
	}
	expectLines(t, code, []string{"iload_0", "iload_0", "imul", "istore_1", "iload_1", "ireturn"})

	main, ok := cls.Method("main")
	if !ok {
		t.Fatal("method main missing")
	}
	code = code[:0]
	for _, in := range main.Code {
		code = append(code, in.String())
	}
	expectLines(t, code, []string{
		"new java/util/Scanner",
		"dup",
		"getstatic java/lang/System/in Ljava/io/InputStream;",
		"invokespecial java/util/Scanner/<init>(Ljava/io/InputStream;)V",
		"putstatic Demo/_sysin Ljava/util/Scanner;",
		"new Point",
		"dup",
		"invokespecial Point/<init>()V",
		"putstatic Demo/p LPoint;",
		"iconst_4",
		"invokestatic Demo/sq(I)I",
		"putstatic Demo/x I",
		"return",
	})
	if out.Stats.Calls != 1 || out.Stats.TotalStatements() == 0 {
		t.Fatalf("stats = %+v", out.Stats)
	}
}

func TestLowerProgramReportsRoutineErrors(t *testing.T) {
	b := testkit.NewProgram("Demo")
	flag := b.Global("flag", b.B.Boolean)
	p := b.Procedure("spin")
	p.Body(testkit.While(b.V(flag), testkit.Block()))
	_, err := codegen.LowerProgram(context.Background(), b.Program(), b.Types, b.Syms, codegen.ProgramOptions{})
	if !errors.Is(err, diag.ICEUnsupportedWhileCondition) {
		t.Fatalf("got %v, want ICEUnsupportedWhileCondition", err)
	}
}

func TestLowerProgramAllocatesNestedAggregates(t *testing.T) {
	b := testkit.NewProgram("Demo")
	row := b.Array(b.B.Real, 1, 2)
	b.Global("grid", b.Array(row, 0, 1))
	out, err := codegen.LowerProgram(context.Background(), b.Program(), b.Types, b.Syms, codegen.ProgramOptions{})
	if err != nil {
		t.Fatal(err)
	}
	main, _ := out.Class.Method("main")
	var code []string
	for _, in := range main.Code[5:] {
		code = append(code, in.String())
	}
	expectLines(t, code, []string{
		"iconst_2",
		"anewarray [F",
		"dup",
		"iconst_0",
		"iconst_2",
		"newarray float",
		"aastore",
		"dup",
		"iconst_1",
		"iconst_2",
		"newarray float",
		"aastore",
		"putstatic Demo/grid [[F",
		"return",
	})
}
