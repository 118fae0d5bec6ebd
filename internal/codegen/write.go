package codegen

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/types"
)

const (
	systemOut      = "java/lang/System/out"
	printStream    = "Ljava/io/PrintStream;"
	printlnNoArgs  = "java/io/PrintStream/println()V"
	printString    = "java/io/PrintStream/print(Ljava/lang/String;)V"
	printfVarargs  = "java/io/PrintStream/printf(Ljava/lang/String;[Ljava/lang/Object;)Ljava/io/PrintStream;"
	objectClass    = "java/lang/Object"
	formatNewline  = "\n"
	formatLiteralP = "%%"
)

// SegmentKind tells literal text from field specifiers.
type SegmentKind uint8

const (
	SegmentLiteral SegmentKind = iota + 1
	SegmentField
)

// Segment is one piece of a write format: literal text, or a field
// `%[-]width[.precision]flag`.
type Segment struct {
	Kind SegmentKind
	Text string // literal text, unescaped

	Negative     bool
	Width        int // 0 when absent
	HasPrecision bool
	Precision    int
	Flag         byte // d f b c s
}

func (s Segment) String() string {
	if s.Kind == SegmentLiteral {
		return strings.ReplaceAll(s.Text, "%", formatLiteralP)
	}
	var sb strings.Builder
	sb.WriteByte('%')
	if s.Width > 0 {
		if s.Negative {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(s.Width))
	}
	if s.HasPrecision {
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(s.Precision))
	}
	sb.WriteByte(s.Flag)
	return sb.String()
}

// Format is the synthesized format of one write statement.
type Format struct {
	Segments []Segment
	Newline  bool
}

// String renders the printf format string.
func (f Format) String() string {
	var sb strings.Builder
	for _, s := range f.Segments {
		sb.WriteString(s.String())
	}
	if f.Newline {
		sb.WriteString(formatNewline)
	}
	return sb.String()
}

// Plain is the text printed by a format without fields, with no escaping.
func (f Format) Plain() string {
	var sb strings.Builder
	for _, s := range f.Segments {
		sb.WriteString(s.Text)
	}
	if f.Newline {
		sb.WriteString(formatNewline)
	}
	return sb.String()
}

// ExprCount is the number of field specifiers, i.e. the argument array length.
func (f Format) ExprCount() int {
	n := 0
	for _, s := range f.Segments {
		if s.Kind == SegmentField {
			n++
		}
	}
	return n
}

// isLiteralArg reports whether a write argument is folded into the format
// text instead of occupying an argument slot.
func isLiteralArg(a ast.WriteArg) bool {
	if a.Expr == nil {
		return false
	}
	return a.Expr.Kind == ast.ExprStringLit || a.Expr.Kind == ast.ExprCharLit
}

// literalText is the folded text of a literal argument. A width pads it the
// way %Ns would, a precision truncates it.
func literalText(a ast.WriteArg) string {
	text := a.Expr.Str
	if a.Expr.Kind == ast.ExprCharLit {
		text = string(rune(a.Expr.Int))
	}
	w := a.Width
	if w == nil {
		return text
	}
	if w.HasPrecision && w.Precision >= 0 && utf8.RuneCountInString(text) > w.Precision {
		text = string([]rune(text)[:w.Precision])
	}
	pad := w.Width - utf8.RuneCountInString(text)
	if pad <= 0 {
		return text
	}
	if w.Negative {
		return text + strings.Repeat(" ", pad)
	}
	return strings.Repeat(" ", pad) + text
}

// formatFlag picks the conversion for a value of type t.
func formatFlag(in *types.Interner, t types.TypeID) byte {
	switch in.KindOf(t) {
	case types.KindInteger:
		return 'd'
	case types.KindReal:
		return 'f'
	case types.KindBoolean:
		return 'b'
	case types.KindChar:
		return 'c'
	default:
		return 's'
	}
}

// BuildFormat synthesizes the format of a write or writeln statement.
func BuildFormat(in *types.Interner, args []ast.WriteArg, newline bool) Format {
	f := Format{Newline: newline, Segments: make([]Segment, 0, len(args))}
	for _, a := range args {
		if isLiteralArg(a) {
			f.Segments = append(f.Segments, Segment{Kind: SegmentLiteral, Text: literalText(a)})
			continue
		}
		seg := Segment{Kind: SegmentField}
		if a.Expr != nil {
			seg.Flag = formatFlag(in, a.Expr.Type)
		}
		if w := a.Width; w != nil {
			seg.Negative = w.Negative
			seg.Width = w.Width
			seg.HasPrecision = w.HasPrecision
			seg.Precision = w.Precision
		}
		f.Segments = append(f.Segments, seg)
	}
	return f
}

// valueOfSignature is the boxing call for a scalar or enumeration type.
func valueOfSignature(in *types.Interner, t types.TypeID) (string, bool) {
	switch in.KindOf(t) {
	case types.KindInteger, types.KindEnum:
		return "java/lang/Integer/valueOf(I)Ljava/lang/Integer;", true
	case types.KindReal:
		return "java/lang/Float/valueOf(F)Ljava/lang/Float;", true
	case types.KindBoolean:
		return "java/lang/Boolean/valueOf(Z)Ljava/lang/Boolean;", true
	case types.KindChar:
		return "java/lang/Character/valueOf(C)Ljava/lang/Character;", true
	}
	return "", false
}

// lowerWrite prints through System.out: println() for a bare writeln,
// print(text) when every argument is literal, printf(format, args)
// otherwise.
func (g *Generator) lowerWrite(s *ast.WriteStmt, newline bool) error {
	var args []ast.WriteArg
	if s != nil {
		args = s.Args
	}
	for i, a := range args {
		if a.Expr == nil {
			return diag.Internal(diag.ICEUnsupportedExpr, "write", "argument %d has no expression", i+1)
		}
	}
	g.emit(bytecode.Field(bytecode.GETSTATIC, systemOut, printStream))
	if len(args) == 0 && newline {
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, printlnNoArgs))
		return nil
	}

	format := BuildFormat(g.types, args, newline)
	exprCount := format.ExprCount()
	if exprCount == 0 {
		g.emit(bytecode.LdcString(format.Plain()))
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, printString))
		return nil
	}
	g.emit(bytecode.LdcString(format.String()))

	if err := g.emitIntConst(int64(exprCount)); err != nil {
		return err
	}
	g.emit(bytecode.TypeRef(bytecode.ANEWARRAY, objectClass))
	index := 0
	for _, a := range args {
		if isLiteralArg(a) {
			continue
		}
		g.simple(bytecode.DUP)
		if err := g.emitIntConst(int64(index)); err != nil {
			return err
		}
		index++
		if err := g.EmitExpr(a.Expr); err != nil {
			return err
		}
		if sig, ok := valueOfSignature(g.types, a.Expr.Type); ok {
			g.emit(bytecode.Invoke(bytecode.INVOKESTATIC, sig))
		}
		g.simple(bytecode.AASTORE)
	}
	g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, printfVarargs))
	g.simple(bytecode.POP)
	return nil
}
