package codegen_test

import (
	"errors"
	"testing"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/codegen"
	"pascalc/internal/diag"
	"pascalc/internal/label"
	"pascalc/internal/testkit"
	"pascalc/internal/types"
)

func TestAssignWidensIntegralIntoReal(t *testing.T) {
	b := testkit.NewProgram("Demo")
	x := b.Global("x", b.B.Real)
	n := b.Global("n", b.B.Integer)

	l := lower(t, b, b.Set(x, b.V(n)))
	expectLines(t, l.lines, []string{
		"getstatic Demo/n I",
		"i2f",
		"putstatic Demo/x F",
	})

	l = lower(t, b, b.Set(n, b.V(n)))
	if got := countOp(l.buf.Instrs(), bytecode.I2F); got != 0 {
		t.Fatalf("integer := integer emitted %d I2F", got)
	}
}

func TestAssignRejectsRealIntoInteger(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)
	l := lowerWith(t, b, codegen.Options{}, b.Set(n, b.Real(1.5)))
	if !errors.Is(l.err, diag.ICETypeMismatch) {
		t.Fatalf("got %v, want ICETypeMismatch", l.err)
	}
}

func TestAssignElementPrefixPrecedesValue(t *testing.T) {
	b := testkit.NewProgram("Demo")
	arr := b.Array(b.B.Integer, 1, 10)
	a := b.Global("a", arr)
	i := b.Global("i", b.B.Integer)

	l := lower(t, b, testkit.Assign(b.Index(b.Ref(a), b.V(i)), b.Int(7)))
	expectLines(t, l.lines, []string{
		"getstatic Demo/a [I",
		"getstatic Demo/i I",
		"iconst_1",
		"isub",
		"bipush 7",
		"iastore",
	})
}

func TestAssignFieldUsesFieldType(t *testing.T) {
	b := testkit.NewProgram("Demo")
	pt, fields := b.Record("Point", types.Field{Name: "x", Type: b.B.Real}, types.Field{Name: "y", Type: b.B.Real})
	p := b.Global("p", pt)

	l := lower(t, b, testkit.Assign(b.Field(b.Ref(p), fields["x"]), b.Int(2)))
	expectLines(t, l.lines, []string{
		"getstatic Demo/p LPoint;",
		"iconst_2",
		"i2f",
		"putfield Point/x F",
	})
}

func TestAssignNestedModifiers(t *testing.T) {
	b := testkit.NewProgram("Demo")
	pt, fields := b.Record("Cell", types.Field{Name: "v", Type: b.B.Char})
	grid := b.Global("grid", b.Array(pt, 0, 3))

	target := b.Field(b.Index(b.Ref(grid), b.Int(2)), fields["v"])
	l := lower(t, b, testkit.Assign(target, b.Char('z')))
	expectLines(t, l.lines, []string{
		"getstatic Demo/grid [LCell;",
		"iconst_2",
		"aaload",
		"bipush 122",
		"putfield Cell/v C",
	})
}

func TestIfElse(t *testing.T) {
	b := testkit.NewProgram("Demo")
	flag := b.Global("flag", b.B.Boolean)
	n := b.Global("n", b.B.Integer)

	l := lower(t, b, testkit.If(b.V(flag), b.Set(n, b.Int(1)), b.Set(n, b.Int(2))))
	expectLines(t, l.lines, []string{
		"getstatic Demo/flag Z",
		"ifeq L001",
		"iconst_1",
		"putstatic Demo/n I",
		"goto L002",
		"L001:",
		"iconst_2",
		"putstatic Demo/n I",
		"L002:",
	})

	l = lower(t, b, testkit.If(b.V(flag), b.Set(n, b.Int(1)), nil))
	expectLines(t, l.lines, []string{
		"getstatic Demo/flag Z",
		"ifeq L001",
		"iconst_1",
		"putstatic Demo/n I",
		"L001:",
	})
}

func TestCaseSortsDispatchTable(t *testing.T) {
	b := testkit.NewProgram("Demo")
	sel := b.Global("sel", b.B.Integer)
	out := b.Global("out", b.B.Integer)

	l := lower(t, b, testkit.Case(b.V(sel),
		testkit.Branch(b.Set(out, b.Int(10)), 1), // A
		testkit.Branch(b.Set(out, b.Int(30)), 5), // C
		testkit.Branch(b.Set(out, b.Int(20)), 3), // B
	))
	code := l.buf.Instrs()
	if code[1].Op != bytecode.LOOKUPSWITCH {
		t.Fatalf("second instruction is %s, want lookupswitch", code[1].Op)
	}
	sw := code[1]
	want := []bytecode.SwitchCase{{Key: 1, Label: 1}, {Key: 3, Label: 3}, {Key: 5, Label: 2}}
	if len(sw.Cases) != len(want) {
		t.Fatalf("table = %+v", sw.Cases)
	}
	for i := range want {
		if sw.Cases[i].Key != want[i].Key || sw.Cases[i].Label != want[i].Label {
			t.Fatalf("table[%d] = %+v, want %+v", i, sw.Cases[i], want[i])
		}
	}
	if sw.Label != label.ID(4) {
		t.Fatalf("default = %s, want L004", sw.Label)
	}
	if got := countOp(code, bytecode.GOTO); got != 3 {
		t.Fatalf("%d GOTO exit, want 3", got)
	}
}

func TestCaseRejectsDuplicateValues(t *testing.T) {
	b := testkit.NewProgram("Demo")
	sel := b.Global("sel", b.B.Integer)
	l := lowerWith(t, b, codegen.Options{}, testkit.Case(b.V(sel),
		testkit.Branch(testkit.Block(), 1, 2),
		testkit.Branch(testkit.Block(), 3, 2),
	))
	if !errors.Is(l.err, diag.ICEDuplicateCaseValue) {
		t.Fatalf("got %v, want ICEDuplicateCaseValue", l.err)
	}
	if l.buf.Len() != 0 {
		t.Fatalf("rejected case emitted %d instructions", l.buf.Len())
	}
}

func TestCaseRejectsOutOfRangeValue(t *testing.T) {
	b := testkit.NewProgram("Demo")
	sel := b.Global("sel", b.B.Integer)
	l := lowerWith(t, b, codegen.Options{}, testkit.Case(b.V(sel), testkit.Branch(nil, 1<<40)))
	if !errors.Is(l.err, diag.ICECaseValueRange) {
		t.Fatalf("got %v, want ICECaseValueRange", l.err)
	}
}

func TestCaseWithoutBranches(t *testing.T) {
	b := testkit.NewProgram("Demo")
	sel := b.Global("sel", b.B.Integer)
	l := lower(t, b, testkit.Case(b.V(sel)))
	expectLines(t, l.lines, []string{
		"getstatic Demo/sel I",
		"lookupswitch\n      default: L001",
		"L001:",
	})
}

func TestCaseBranchWithoutBodyFallsThrough(t *testing.T) {
	b := testkit.NewProgram("Demo")
	sel := b.Global("sel", b.B.Integer)
	out := b.Global("out", b.B.Integer)
	l := lower(t, b, testkit.Case(b.V(sel),
		testkit.Branch(nil, 1),
		testkit.Branch(b.Set(out, b.Int(2)), 2),
	))
	expectLines(t, l.lines[2:], []string{
		"L001:",
		"L002:",
		"iconst_2",
		"putstatic Demo/out I",
		"goto L003",
		"L003:",
	})
}

func TestRepeatUntil(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)
	l := lower(t, b, testkit.Repeat(b.Bin(ast.OpEq, b.V(n), b.Int(3)),
		b.Set(n, b.Bin(ast.OpAdd, b.V(n), b.Int(1)))))
	expectLines(t, l.lines, []string{
		"L001:",
		"getstatic Demo/n I",
		"iconst_1",
		"iadd",
		"putstatic Demo/n I",
		"getstatic Demo/n I",
		"iconst_3",
		"if_icmpeq L003",
		"iconst_0",
		"goto L004",
		"L003:",
		"iconst_1",
		"L004:",
		"ifne L002",
		"goto L001",
		"L002:",
	})
}

func TestWhileNegatesRelationalOperator(t *testing.T) {
	tests := []struct {
		op   ast.BinaryOp
		want bytecode.Op
	}{
		{ast.OpLe, bytecode.IF_ICMPGT},
		{ast.OpGe, bytecode.IF_ICMPLT},
		{ast.OpLt, bytecode.IF_ICMPGE},
		{ast.OpGt, bytecode.IF_ICMPLE},
		{ast.OpEq, bytecode.IF_ICMPNE},
		{ast.OpNe, bytecode.IF_ICMPEQ},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			b := testkit.NewProgram("Demo")
			i := b.Global("i", b.B.Integer)
			n := b.Global("n", b.B.Integer)
			l := lower(t, b, testkit.While(b.Bin(tt.op, b.V(i), b.V(n)), testkit.Block()))
			expectLines(t, l.lines, []string{
				"L001:",
				"getstatic Demo/i I",
				"getstatic Demo/n I",
				bytecode.Branch(tt.want, 2).String(),
				"goto L001",
				"L002:",
			})
		})
	}
}

func TestWhileRealAndStringComparisons(t *testing.T) {
	b := testkit.NewProgram("Demo")
	x := b.Global("x", b.B.Real)
	s := b.Global("s", b.B.String)

	l := lower(t, b, testkit.While(b.Bin(ast.OpLt, b.V(x), b.Int(10)), testkit.Block()))
	expectLines(t, l.lines[1:5], []string{
		"getstatic Demo/x F",
		"bipush 10",
		"i2f",
		"fcmpg",
	})
	if l.lines[5] != "ifge L002" {
		t.Fatalf("exit branch = %q, want ifge L002", l.lines[5])
	}

	l = lower(t, b, testkit.While(b.Bin(ast.OpNe, b.V(s), b.Str("end")), testkit.Block()))
	expectLines(t, l.lines[3:5], []string{
		"invokevirtual java/lang/String/compareTo(Ljava/lang/String;)I",
		"ifeq L002",
	})
}

func TestWhileConditionShapes(t *testing.T) {
	b := testkit.NewProgram("Demo")
	flag := b.Global("flag", b.B.Boolean)
	loop := testkit.While(b.V(flag), testkit.Block())

	l := lowerWith(t, b, codegen.Options{}, loop)
	if !errors.Is(l.err, diag.ICEUnsupportedWhileCondition) {
		t.Fatalf("got %v, want ICEUnsupportedWhileCondition", l.err)
	}

	l = lowerWith(t, b, codegen.Options{GeneralWhileConditions: true}, loop)
	if l.err != nil {
		t.Fatal(l.err)
	}
	expectLines(t, l.lines, []string{
		"L001:",
		"getstatic Demo/flag Z",
		"ifeq L002",
		"goto L001",
		"L002:",
	})
}

func TestForAscendingAndDescending(t *testing.T) {
	b := testkit.NewProgram("Demo")
	i := b.Global("i", b.B.Integer)

	l := lower(t, b, b.For(i, b.Int(1), b.Int(3), testkit.Block()))
	expectLines(t, l.lines, []string{
		"iconst_1",
		"putstatic Demo/i I",
		"L001:",
		"getstatic Demo/i I",
		"iconst_3",
		"if_icmpgt L002",
		"getstatic Demo/i I",
		"iconst_1",
		"iadd",
		"putstatic Demo/i I",
		"goto L001",
		"L002:",
	})

	l = lower(t, b, b.Downto(i, b.Int(3), b.Int(1), testkit.Block()))
	if l.lines[5] != "if_icmplt L002" || l.lines[8] != "isub" {
		t.Fatalf("downto shape:\n%v", l.lines)
	}
}

func TestForStartIsParsedFromLiteralText(t *testing.T) {
	b := testkit.NewProgram("Demo")
	c := b.Global("c", b.B.Char)
	x := b.Global("x", b.B.Real)

	l := lower(t, b, b.For(c, b.Char('a'), b.Char('e'), testkit.Block()))
	if l.lines[0] != "bipush 97" {
		t.Fatalf("char start = %q", l.lines[0])
	}

	l = lower(t, b, b.For(x, b.Real(0.5), b.Int(4), testkit.Block()))
	expectLines(t, l.lines, []string{
		"ldc 0.5",
		"putstatic Demo/x F",
		"L001:",
		"getstatic Demo/x F",
		"iconst_4",
		"i2f",
		"fcmpg",
		"ifgt L002",
		"getstatic Demo/x F",
		"fconst_1",
		"fadd",
		"putstatic Demo/x F",
		"goto L001",
		"L002:",
	})

	bad := b.Int(1)
	bad.Text = "1x"
	l = lowerWith(t, b, codegen.Options{}, b.For(c, bad, b.Int(3), testkit.Block()))
	if !errors.Is(l.err, diag.ICEMalformedLiteral) {
		t.Fatalf("got %v, want ICEMalformedLiteral", l.err)
	}
}

func TestForNonLiteralStart(t *testing.T) {
	b := testkit.NewProgram("Demo")
	i := b.Global("i", b.B.Integer)
	n := b.Global("n", b.B.Integer)
	loop := b.For(i, b.V(n), b.Int(10), testkit.Block())

	l := lowerWith(t, b, codegen.Options{}, loop)
	if !errors.Is(l.err, diag.ICENonLiteralForStart) {
		t.Fatalf("got %v, want ICENonLiteralForStart", l.err)
	}
	l = lowerWith(t, b, codegen.Options{GeneralForStart: true}, loop)
	if l.err != nil {
		t.Fatal(l.err)
	}
	if l.lines[0] != "getstatic Demo/n I" {
		t.Fatalf("start = %q", l.lines[0])
	}
}

func TestForRejectsNonOrdinalVariable(t *testing.T) {
	b := testkit.NewProgram("Demo")
	s := b.Global("s", b.B.String)
	l := lowerWith(t, b, codegen.Options{}, b.For(s, b.Int(1), b.Int(2), testkit.Block()))
	if !errors.Is(l.err, diag.ICETypeMismatch) {
		t.Fatalf("got %v, want ICETypeMismatch", l.err)
	}
}

func TestCallWidensOnlyRealFormals(t *testing.T) {
	b := testkit.NewProgram("Demo")
	scale := b.Procedure("scale", testkit.P("f", b.B.Real))
	count := b.Procedure("count", testkit.P("k", b.B.Integer))

	l := lower(t, b, testkit.ProcCall(scale.ID, b.Int(5)))
	expectLines(t, l.lines, []string{
		"iconst_5",
		"i2f",
		"invokestatic Demo/scale(F)V",
	})

	l = lower(t, b, testkit.ProcCall(count.ID, b.Int(5)))
	expectLines(t, l.lines, []string{
		"iconst_5",
		"invokestatic Demo/count(I)V",
	})
}

func TestCallSignatureAndWideningOrder(t *testing.T) {
	b := testkit.NewProgram("Demo")
	mix := b.Function("mix", b.B.Real, testkit.P("a", b.B.Real), testkit.P("n", b.B.Integer), testkit.P("s", b.B.String))
	l := lower(t, b, testkit.FuncCall(mix.ID, b.Int(1), b.Int(2), b.Str("x")))
	expectLines(t, l.lines, []string{
		"iconst_1",
		"i2f",
		"iconst_2",
		`ldc "x"`,
		"invokestatic Demo/mix(FILjava/lang/String;)F",
		"pop",
	})
	st := l.gen.Stats()
	if st.Calls != 1 || st.Args != 3 || st.Widenings != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestCallWithoutArguments(t *testing.T) {
	b := testkit.NewProgram("Demo")
	tick := b.Procedure("tick")
	l := lower(t, b, testkit.ProcCall(tick.ID))
	expectLines(t, l.lines, []string{"invokestatic Demo/tick()V"})
}

func TestCallArityMismatch(t *testing.T) {
	b := testkit.NewProgram("Demo")
	p := b.Procedure("p", testkit.P("a", b.B.Integer))
	l := lowerWith(t, b, codegen.Options{}, testkit.ProcCall(p.ID))
	if !errors.Is(l.err, diag.ICEArityMismatch) {
		t.Fatalf("got %v, want ICEArityMismatch", l.err)
	}
	n := b.Global("n", b.B.Integer)
	l = lowerWith(t, b, codegen.Options{}, testkit.ProcCall(n))
	if !errors.Is(l.err, diag.ICEUnknownRoutine) {
		t.Fatalf("got %v, want ICEUnknownRoutine", l.err)
	}
}

func TestStatsArePerGenerator(t *testing.T) {
	b := testkit.NewProgram("Demo")
	p := b.Procedure("p", testkit.P("a", b.B.Integer))
	first := lower(t, b, testkit.Block(testkit.ProcCall(p.ID, b.Int(1)), testkit.ProcCall(p.ID, b.Int(2))))
	second := lower(t, b, testkit.ProcCall(p.ID, b.Int(3)))
	if first.gen.Stats().Args != 2 || second.gen.Stats().Args != 1 {
		t.Fatalf("args: first %d second %d", first.gen.Stats().Args, second.gen.Stats().Args)
	}
}

func TestReadSequences(t *testing.T) {
	b := testkit.NewProgram("Demo")
	n := b.Global("n", b.B.Integer)
	c := b.Global("c", b.B.Char)

	l := lower(t, b, testkit.Read(b.Ref(n)))
	expectLines(t, l.lines, []string{
		"getstatic Demo/_sysin Ljava/util/Scanner;",
		"invokevirtual java/util/Scanner/nextInt()I",
		"putstatic Demo/n I",
	})

	l = lower(t, b, testkit.Readln(b.Ref(c)))
	expectLines(t, l.lines, []string{
		"getstatic Demo/_sysin Ljava/util/Scanner;",
		`ldc ""`,
		"invokevirtual java/util/Scanner/useDelimiter(Ljava/lang/String;)Ljava/util/Scanner;",
		"pop",
		"getstatic Demo/_sysin Ljava/util/Scanner;",
		"invokevirtual java/util/Scanner/next()Ljava/lang/String;",
		"iconst_0",
		"invokevirtual java/lang/String/charAt(I)C",
		"putstatic Demo/c C",
		"getstatic Demo/_sysin Ljava/util/Scanner;",
		"invokevirtual java/util/Scanner/reset()Ljava/util/Scanner;",
		"pop",
		"getstatic Demo/_sysin Ljava/util/Scanner;",
		"invokevirtual java/util/Scanner/nextLine()Ljava/lang/String;",
		"pop",
	})
}

func TestReadIntoElement(t *testing.T) {
	b := testkit.NewProgram("Demo")
	xs := b.Global("xs", b.Array(b.B.Real, 0, 4))
	l := lower(t, b, testkit.Read(b.Index(b.Ref(xs), b.Int(3))))
	expectLines(t, l.lines, []string{
		"getstatic Demo/xs [F",
		"iconst_3",
		"getstatic Demo/_sysin Ljava/util/Scanner;",
		"invokevirtual java/util/Scanner/nextFloat()F",
		"fastore",
	})
}

func TestReadRejectsNonTextualTargets(t *testing.T) {
	b := testkit.NewProgram("Demo")
	color, _ := b.Enum("Color", "Red", "Green")
	rec, _ := b.Record("Point", types.Field{Name: "x", Type: b.B.Integer})
	for name, typ := range map[string]types.TypeID{
		"enum":   color,
		"array":  b.Array(b.B.Integer, 0, 2),
		"record": rec,
	} {
		v := b.Global("v_"+name, typ)
		l := lowerWith(t, b, codegen.Options{}, testkit.Read(b.Ref(v)))
		if !errors.Is(l.err, diag.ICETypeMismatch) {
			t.Errorf("%s: got %v, want ICETypeMismatch", name, l.err)
		}
	}
}

func TestLowerStmtAnnotatesLine(t *testing.T) {
	b := testkit.NewProgram("Demo")
	p := b.Procedure("p", testkit.P("a", b.B.Integer))
	call := testkit.ProcCall(p.ID)
	call.Line = 42
	l := lowerWith(t, b, codegen.Options{}, testkit.Block(call))
	ice, ok := diag.AsInternal(l.err)
	if !ok || ice.Line != 42 {
		t.Fatalf("got %v, want an internal error at line 42", l.err)
	}
}
