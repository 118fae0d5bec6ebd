package bytecode_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/label"
)

func TestBufferResolvesForwardAndBackwardLabels(t *testing.T) {
	arena := label.NewArena()
	buf := bytecode.NewBuffer(arena)
	top, exit := arena.New(), arena.New()

	buf.Define(top)                                // 0
	buf.Emit(bytecode.Local(bytecode.ILOAD, 0))    // 0
	buf.Emit(bytecode.Branch(bytecode.IFEQ, exit)) // 1
	buf.Emit(bytecode.Branch(bytecode.GOTO, top))  // 2
	buf.Define(exit)                               // 3
	buf.Emit(bytecode.Simple(bytecode.RETURN))     // 3

	code, err := buf.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if code[1].Target != 3 || code[2].Target != 0 {
		t.Fatalf("targets: ifeq->%d goto->%d", code[1].Target, code[2].Target)
	}
	if buf.Instrs()[1].Target != 0 {
		t.Fatalf("Resolve must not mutate the recorded stream")
	}
}

func TestBufferRejectsUndefinedLabel(t *testing.T) {
	arena := label.NewArena()
	buf := bytecode.NewBuffer(arena)
	buf.Emit(bytecode.Branch(bytecode.GOTO, arena.New()))
	if _, err := buf.Resolve(); !errors.Is(err, diag.ICEUndefinedLabel) {
		t.Fatalf("got %v, want ICEUndefinedLabel", err)
	}
}

func TestBufferRejectsRedefinition(t *testing.T) {
	arena := label.NewArena()
	buf := bytecode.NewBuffer(arena)
	l := arena.New()
	buf.Define(l)
	buf.Emit(bytecode.Simple(bytecode.NOP))
	buf.Define(l)
	if !errors.Is(buf.Err(), diag.ICELabelRedefined) {
		t.Fatalf("got %v, want ICELabelRedefined", buf.Err())
	}
}

func TestBufferTracksStackDepth(t *testing.T) {
	buf := bytecode.NewBuffer(nil)
	buf.Emit(bytecode.Field(bytecode.GETSTATIC, "java/lang/System/out", "Ljava/io/PrintStream;"))
	buf.Emit(bytecode.LdcString("%d"))
	buf.Emit(bytecode.Simple(bytecode.ICONST_1))
	buf.Emit(bytecode.TypeRef(bytecode.ANEWARRAY, "java/lang/Object"))
	buf.Emit(bytecode.Simple(bytecode.DUP))
	if buf.Depth() != 4 {
		t.Fatalf("depth = %d, want 4", buf.Depth())
	}
	buf.Emit(bytecode.Simple(bytecode.ICONST_0))
	buf.Emit(bytecode.Simple(bytecode.ICONST_5))
	buf.Emit(bytecode.Invoke(bytecode.INVOKESTATIC, "java/lang/Integer/valueOf(I)Ljava/lang/Integer;"))
	buf.Emit(bytecode.Simple(bytecode.AASTORE))
	buf.Emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, "java/io/PrintStream/printf(Ljava/lang/String;[Ljava/lang/Object;)Ljava/io/PrintStream;"))
	buf.Emit(bytecode.Simple(bytecode.POP))
	if buf.Depth() != 0 || buf.MaxDepth() != 6 {
		t.Fatalf("depth=%d max=%d, want 0 and 6", buf.Depth(), buf.MaxDepth())
	}
	if buf.Err() != nil {
		t.Fatalf("unexpected error: %v", buf.Err())
	}
}

func TestBufferStackUnderflow(t *testing.T) {
	buf := bytecode.NewBuffer(nil)
	buf.Emit(bytecode.Simple(bytecode.IADD))
	if !errors.Is(buf.Err(), diag.ICEStackUnderflow) {
		t.Fatalf("got %v, want ICEStackUnderflow", buf.Err())
	}
	buf.Emit(bytecode.Simple(bytecode.ICONST_0))
	if buf.Len() != 0 {
		t.Fatalf("events after a failure must be ignored")
	}
}

func TestBufferRestoresDepthAtJoin(t *testing.T) {
	arena := label.NewArena()
	buf := bytecode.NewBuffer(arena)
	isTrue, join := arena.New(), arena.New()
	buf.Emit(bytecode.Simple(bytecode.ICONST_1))
	buf.Emit(bytecode.Simple(bytecode.ICONST_2))
	buf.Emit(bytecode.Branch(bytecode.IF_ICMPLT, isTrue))
	buf.Emit(bytecode.Simple(bytecode.ICONST_0))
	buf.Emit(bytecode.Branch(bytecode.GOTO, join))
	buf.Define(isTrue)
	buf.Emit(bytecode.Simple(bytecode.ICONST_1))
	buf.Define(join)
	if buf.Depth() != 1 {
		t.Fatalf("depth at join = %d, want 1", buf.Depth())
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	md, err := bytecode.ParseMethodDescriptor("(IF[Ljava/lang/Object;LPoint;)Ljava/lang/String;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"I", "F", "[Ljava/lang/Object;", "LPoint;"}
	if len(md.Params) != len(want) {
		t.Fatalf("params = %v", md.Params)
	}
	for i := range want {
		if md.Params[i] != want[i] {
			t.Fatalf("param %d = %q, want %q", i, md.Params[i], want[i])
		}
	}
	if md.Return != "Ljava/lang/String;" {
		t.Fatalf("return = %q", md.Return)
	}
	for _, bad := range []string{"I)V", "(I", "(Q)V", "(Ljava/lang/String)V"} {
		if _, err := bytecode.ParseMethodDescriptor(bad); err == nil {
			t.Errorf("ParseMethodDescriptor(%q) should fail", bad)
		}
	}
}

func TestSplitMember(t *testing.T) {
	owner, name, desc := bytecode.SplitMember("Hello/scale(FI)F")
	if owner != "Hello" || name != "scale" || desc != "(FI)F" {
		t.Fatalf("got %q %q %q", owner, name, desc)
	}
	owner, name, desc = bytecode.SplitMember("java/lang/System/out")
	if owner != "java/lang/System" || name != "out" || desc != "" {
		t.Fatalf("got %q %q %q", owner, name, desc)
	}
}

func TestWriteListing(t *testing.T) {
	arena := label.NewArena()
	buf := bytecode.NewBuffer(arena)
	one, exit := arena.New(), arena.New()
	buf.Emit(bytecode.Simple(bytecode.ICONST_1))
	buf.Emit(bytecode.Switch([]bytecode.SwitchCase{{Key: 1, Label: one}}, exit))
	buf.Define(one)
	buf.Emit(bytecode.LdcString("say \"hi\""))
	buf.Emit(bytecode.Simple(bytecode.POP))
	buf.Define(exit)
	buf.Emit(bytecode.Simple(bytecode.RETURN))
	m, err := buf.Finish("main", "([Ljava/lang/String;)V", true, 1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	var out bytes.Buffer
	cls := &bytecode.Class{Name: "Demo", Methods: []*bytecode.Method{m}}
	if err := bytecode.WriteListing(&out, cls); err != nil {
		t.Fatalf("WriteListing: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		".class public Demo",
		".method public static main([Ljava/lang/String;)V",
		"lookupswitch\n\t      1: L001\n\t      default: L002",
		"L001:\n\tldc \"say \\\"hi\\\"\"",
		".limit stack 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("listing lacks %q:\n%s", want, text)
		}
	}
}

func TestClassCodec(t *testing.T) {
	cls := &bytecode.Class{
		Name:   "Demo",
		Fields: []bytecode.FieldDef{{Name: "i", Desc: "I", Static: true}},
		Methods: []*bytecode.Method{{
			Name: "main", Desc: "([Ljava/lang/String;)V", Static: true,
			Code: []bytecode.Instr{bytecode.LdcFloat(2.5), bytecode.Simple(bytecode.RETURN)},
		}},
	}
	data, err := bytecode.MarshalClass(cls)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := bytecode.DecodeClass(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, ok := back.Method("main")
	if !ok || len(m.Code) != 2 || m.Code[0].Float != 2.5 || m.Code[0].Const != bytecode.ConstFloat {
		t.Fatalf("decoded method mismatch: %+v", m)
	}
}
