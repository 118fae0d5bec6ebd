package codegen

import (
	"strconv"
	"strings"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/label"
	"pascalc/internal/symbols"
)

func (g *Generator) requireBoolean(op string, e *ast.Expr) error {
	if e == nil {
		return diag.Internal(diag.ICEUnsupportedExpr, op, "missing condition")
	}
	if !g.types.IsBoolean(e.Type) {
		return diag.Internal(diag.ICETypeMismatch, op, "condition has type %s, want boolean", g.types.String(e.Type))
	}
	return nil
}

// lowerIf:
//
//	cond; IFEQ L1; then; [GOTO L2;] L1: [else; L2:]
func (g *Generator) lowerIf(s *ast.IfStmt) error {
	if s == nil {
		return payload(ast.StmtIf)
	}
	if err := g.requireBoolean("if", s.Cond); err != nil {
		return err
	}
	falseLabel := g.newLabel()
	if err := g.EmitExpr(s.Cond); err != nil {
		return err
	}
	g.jump(bytecode.IFEQ, falseLabel)
	if err := g.LowerStmt(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		g.define(falseLabel)
		return nil
	}
	joinLabel := g.newLabel()
	g.jump(bytecode.GOTO, joinLabel)
	g.define(falseLabel)
	if err := g.LowerStmt(s.Else); err != nil {
		return err
	}
	g.define(joinLabel)
	return nil
}

// lowerRepeat runs the body at least once and leaves when cond is true.
func (g *Generator) lowerRepeat(s *ast.RepeatStmt) error {
	if s == nil {
		return payload(ast.StmtRepeat)
	}
	if err := g.requireBoolean("repeat", s.Cond); err != nil {
		return err
	}
	top, exit := g.newLabel(), g.newLabel()
	g.define(top)
	if err := g.LowerStmts(s.Body); err != nil {
		return err
	}
	if err := g.EmitExpr(s.Cond); err != nil {
		return err
	}
	g.jump(bytecode.IFNE, exit)
	g.jump(bytecode.GOTO, top)
	g.define(exit)
	return nil
}

// lowerWhile branches out of the loop on the negation of a top-level
// relational condition. Other conditions need GeneralWhileConditions.
func (g *Generator) lowerWhile(s *ast.WhileStmt) error {
	if s == nil {
		return payload(ast.StmtWhile)
	}
	if err := g.requireBoolean("while", s.Cond); err != nil {
		return err
	}
	cond := s.Cond
	relational := cond.Kind == ast.ExprBinary && cond.Op.IsRelational()
	if !relational && !g.opts.GeneralWhileConditions {
		return diag.Internal(diag.ICEUnsupportedWhileCondition, "while",
			"condition must be a single relational comparison, got %s", describeExpr(cond))
	}

	top, exit := g.newLabel(), g.newLabel()
	g.define(top)
	if relational {
		if err := g.emitCompareBranch(cond.Left, cond.Right, cond.Op.Negate(), exit); err != nil {
			return err
		}
	} else {
		if err := g.EmitExpr(cond); err != nil {
			return err
		}
		g.jump(bytecode.IFEQ, exit)
	}
	if err := g.LowerStmt(s.Body); err != nil {
		return err
	}
	g.jump(bytecode.GOTO, top)
	g.define(exit)
	return nil
}

func describeExpr(e *ast.Expr) string {
	if e.Kind == ast.ExprBinary {
		return "'" + e.Op.String() + "' expression"
	}
	return e.Kind.String()
}

var (
	ifOps = map[ast.BinaryOp]bytecode.Op{
		ast.OpEq: bytecode.IFEQ, ast.OpNe: bytecode.IFNE,
		ast.OpLt: bytecode.IFLT, ast.OpGe: bytecode.IFGE,
		ast.OpGt: bytecode.IFGT, ast.OpLe: bytecode.IFLE,
	}
	icmpOps = map[ast.BinaryOp]bytecode.Op{
		ast.OpEq: bytecode.IF_ICMPEQ, ast.OpNe: bytecode.IF_ICMPNE,
		ast.OpLt: bytecode.IF_ICMPLT, ast.OpGe: bytecode.IF_ICMPGE,
		ast.OpGt: bytecode.IF_ICMPGT, ast.OpLe: bytecode.IF_ICMPLE,
	}
)

const stringCompareTo = "java/lang/String/compareTo(Ljava/lang/String;)I"

// emitCompareBranch evaluates left and right and jumps to target when
// `left op right` holds. Ordinals compare with IF_ICMPxx, reals with FCMPG
// and strings with String.compareTo.
func (g *Generator) emitCompareBranch(left, right *ast.Expr, op ast.BinaryOp, target label.ID) error {
	if left == nil || right == nil {
		return diag.Internal(diag.ICEUnsupportedExpr, "compare", "comparison lacks an operand")
	}
	if !op.IsRelational() {
		return diag.Internal(diag.ICEUnsupportedExpr, "compare", "%s is not a comparison", op)
	}
	lt, rt := left.Type, right.Type
	switch {
	case g.types.IsNumeric(lt) && g.types.IsNumeric(rt) && (g.types.IsReal(lt) || g.types.IsReal(rt)):
		realType := g.types.Builtins().Real
		if err := g.EmitExpr(left); err != nil {
			return err
		}
		g.widen(realType, lt)
		if err := g.EmitExpr(right); err != nil {
			return err
		}
		g.widen(realType, rt)
		g.simple(bytecode.FCMPG)
		g.jump(ifOps[op], target)
	case g.types.IsString(lt) && g.types.IsString(rt):
		if err := g.EmitExpr(left); err != nil {
			return err
		}
		if err := g.EmitExpr(right); err != nil {
			return err
		}
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, stringCompareTo))
		g.jump(ifOps[op], target)
	case g.types.IsOrdinal(lt) && g.types.IsOrdinal(rt):
		if err := g.EmitExpr(left); err != nil {
			return err
		}
		if err := g.EmitExpr(right); err != nil {
			return err
		}
		g.jump(icmpOps[op], target)
	default:
		return diag.Internal(diag.ICETypeMismatch, "compare", "cannot compare %s with %s",
			g.types.String(lt), g.types.String(rt))
	}
	return nil
}

// lowerFor counts the control variable from start to end in steps of one,
// testing the end bound, re-evaluated, before every iteration.
func (g *Generator) lowerFor(s *ast.ForStmt) error {
	if s == nil || s.Var == nil || s.Start == nil || s.End == nil {
		return payload(ast.StmtFor)
	}
	if len(s.Var.Modifiers) > 0 {
		return diag.Internal(diag.ICEModifierMismatch, "for", "control variable must be a simple variable")
	}
	varType := s.Var.Type
	isReal := g.types.IsReal(varType)
	if !isReal && !g.types.IsOrdinal(varType) {
		return diag.Internal(diag.ICETypeMismatch, "for", "control variable of type %s", g.types.String(varType))
	}
	sym, err := g.symbol("for", s.Var.Sym)
	if err != nil {
		return err
	}

	switch {
	case s.Start.Kind.IsLiteral():
		if err := g.emitStartLiteral(s.Start); err != nil {
			return err
		}
	case g.opts.GeneralForStart:
		if err := g.EmitExpr(s.Start); err != nil {
			return err
		}
	default:
		return diag.Internal(diag.ICENonLiteralForStart, "for", "start bound is a %s, not a literal", s.Start.Kind)
	}
	g.widen(varType, s.Start.Type)
	if err := g.emitStoreSym(sym); err != nil {
		return err
	}

	top, exit := g.newLabel(), g.newLabel()
	g.define(top)
	if err := g.emitLoadSym(sym); err != nil {
		return err
	}
	if err := g.EmitExpr(s.End); err != nil {
		return err
	}
	g.widen(varType, s.End.Type)
	g.emitForExit(isReal, s.Downto, exit)

	if err := g.LowerStmt(s.Body); err != nil {
		return err
	}
	if err := g.emitStep(sym, isReal, s.Downto); err != nil {
		return err
	}
	g.jump(bytecode.GOTO, top)
	g.define(exit)
	return nil
}

func (g *Generator) emitForExit(isReal, downto bool, exit label.ID) {
	switch {
	case isReal && downto:
		g.simple(bytecode.FCMPG)
		g.jump(bytecode.IFLT, exit)
	case isReal:
		g.simple(bytecode.FCMPG)
		g.jump(bytecode.IFGT, exit)
	case downto:
		g.jump(bytecode.IF_ICMPLT, exit)
	default:
		g.jump(bytecode.IF_ICMPGT, exit)
	}
}

func (g *Generator) emitStep(sym *symbols.Symbol, isReal, downto bool) error {
	if err := g.emitLoadSym(sym); err != nil {
		return err
	}
	switch {
	case isReal && downto:
		g.simple(bytecode.FCONST_1)
		g.simple(bytecode.FSUB)
	case isReal:
		g.simple(bytecode.FCONST_1)
		g.simple(bytecode.FADD)
	case downto:
		g.simple(bytecode.ICONST_1)
		g.simple(bytecode.ISUB)
	default:
		g.simple(bytecode.ICONST_1)
		g.simple(bytecode.IADD)
	}
	return g.emitStoreSym(sym)
}

// emitStartLiteral loads a for-loop start bound parsed from the literal's
// source text, falling back to its folded value when the text is absent.
func (g *Generator) emitStartLiteral(e *ast.Expr) error {
	text := strings.TrimSpace(e.Text)
	switch e.Kind {
	case ast.ExprIntLit:
		v := e.Int
		if text != "" {
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return diag.Internal(diag.ICEMalformedLiteral, "for", "integer start %q: %v", text, err)
			}
			v = n
		}
		return g.emitIntConst(v)
	case ast.ExprRealLit:
		v := e.Real
		if text != "" {
			f, err := strconv.ParseFloat(text, 32)
			if err != nil {
				return diag.Internal(diag.ICEMalformedLiteral, "for", "real start %q: %v", text, err)
			}
			v = f
		}
		g.emitFloatConst(v)
		return nil
	case ast.ExprCharLit:
		v := e.Int
		if text != "" {
			r, err := parseCharLiteral(text)
			if err != nil {
				return diag.Internal(diag.ICEMalformedLiteral, "for", "char start %s", err)
			}
			v = int64(r)
		}
		return g.emitIntConst(v)
	case ast.ExprBoolLit:
		return g.emitLoadConstant(e)
	}
	return diag.Internal(diag.ICETypeMismatch, "for", "%s cannot start a for loop", e.Kind)
}

// parseCharLiteral decodes a quoted single-character literal such as 'a'
// or ''''.
func parseCharLiteral(text string) (rune, error) {
	if len(text) < 3 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return 0, &literalError{text: text, reason: "is not quoted"}
	}
	body := strings.ReplaceAll(text[1:len(text)-1], "''", "'")
	runes := []rune(body)
	if len(runes) != 1 {
		return 0, &literalError{text: text, reason: "is not a single character"}
	}
	return runes[0], nil
}

type literalError struct {
	text   string
	reason string
}

func (e *literalError) Error() string { return strconv.Quote(e.text) + " " + e.reason }
