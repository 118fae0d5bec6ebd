package codegen

import (
	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
)

// exprEmitter is the built-in expression lowering.
type exprEmitter struct{}

func (exprEmitter) EmitExpr(g *Generator, e *ast.Expr) error {
	switch e.Kind {
	case ast.ExprIntLit, ast.ExprRealLit, ast.ExprCharLit, ast.ExprStringLit, ast.ExprBoolLit:
		return g.emitLoadConstant(e)
	case ast.ExprVar:
		return g.emitLoadVar(e.Var)
	case ast.ExprUnary:
		return g.emitUnary(e)
	case ast.ExprBinary:
		return g.emitBinary(e)
	case ast.ExprCall:
		cs, err := g.encodeCall(e.Call)
		if err != nil {
			return err
		}
		if cs.Void {
			return diag.Internal(diag.ICETypeMismatch, "expr", "procedure %s used as a value", cs.Target)
		}
		return nil
	}
	return diag.Internal(diag.ICEUnsupportedExpr, "expr", "cannot lower %s expression", e.Kind)
}

func (g *Generator) emitUnary(e *ast.Expr) error {
	if e.Operand == nil {
		return diag.Internal(diag.ICEUnsupportedExpr, "expr", "unary expression without operand")
	}
	if err := g.EmitExpr(e.Operand); err != nil {
		return err
	}
	switch e.Unary {
	case ast.UnaryPlus:
	case ast.UnaryNeg:
		switch {
		case g.types.IsReal(e.Operand.Type):
			g.simple(bytecode.FNEG)
		case g.types.IsIntegral(e.Operand.Type):
			g.simple(bytecode.INEG)
		default:
			return diag.Internal(diag.ICETypeMismatch, "expr", "negation of %s", g.types.String(e.Operand.Type))
		}
	case ast.UnaryNot:
		if !g.types.IsBoolean(e.Operand.Type) {
			return diag.Internal(diag.ICETypeMismatch, "expr", "not of %s", g.types.String(e.Operand.Type))
		}
		g.simple(bytecode.ICONST_1)
		g.simple(bytecode.IXOR)
	default:
		return diag.Internal(diag.ICEUnsupportedExpr, "expr", "unknown unary operator %d", e.Unary)
	}
	return nil
}

var (
	intArith = map[ast.BinaryOp]bytecode.Op{
		ast.OpAdd: bytecode.IADD, ast.OpSub: bytecode.ISUB, ast.OpMul: bytecode.IMUL,
		ast.OpDiv: bytecode.IDIV, ast.OpMod: bytecode.IREM,
	}
	realArith = map[ast.BinaryOp]bytecode.Op{
		ast.OpAdd: bytecode.FADD, ast.OpSub: bytecode.FSUB, ast.OpMul: bytecode.FMUL,
		ast.OpSlash: bytecode.FDIV,
	}
)

func (g *Generator) emitBinary(e *ast.Expr) error {
	if e.Left == nil || e.Right == nil {
		return diag.Internal(diag.ICEUnsupportedExpr, "expr", "binary %s lacks an operand", e.Op)
	}
	if e.Op.IsRelational() {
		return g.emitRelational(e)
	}
	lt, rt := e.Left.Type, e.Right.Type
	switch e.Op {
	case ast.OpAnd, ast.OpOr:
		if !g.types.IsBoolean(lt) || !g.types.IsBoolean(rt) {
			return diag.Internal(diag.ICETypeMismatch, "expr", "%s of %s and %s", e.Op, g.types.String(lt), g.types.String(rt))
		}
		if err := g.emitOperands(e, false); err != nil {
			return err
		}
		if e.Op == ast.OpAnd {
			g.simple(bytecode.IAND)
		} else {
			g.simple(bytecode.IOR)
		}
		return nil
	}
	if !g.types.IsNumeric(lt) || !g.types.IsNumeric(rt) {
		return diag.Internal(diag.ICETypeMismatch, "expr", "%s of %s and %s", e.Op, g.types.String(lt), g.types.String(rt))
	}
	asReal := e.Op == ast.OpSlash || g.types.IsReal(lt) || g.types.IsReal(rt)
	if err := g.emitOperands(e, asReal); err != nil {
		return err
	}
	table := intArith
	if asReal {
		table = realArith
	}
	op, ok := table[e.Op]
	if !ok {
		return diag.Internal(diag.ICETypeMismatch, "expr", "%s is not defined on these operands", e.Op)
	}
	g.simple(op)
	return nil
}

// emitOperands pushes left then right, widening each integral operand
// when the operation is carried out in real arithmetic.
func (g *Generator) emitOperands(e *ast.Expr, asReal bool) error {
	realType := g.types.Builtins().Real
	if err := g.EmitExpr(e.Left); err != nil {
		return err
	}
	if asReal {
		g.widen(realType, e.Left.Type)
	}
	if err := g.EmitExpr(e.Right); err != nil {
		return err
	}
	if asReal {
		g.widen(realType, e.Right.Type)
	}
	return nil
}

// emitRelational materialises a comparison as 0 or 1.
func (g *Generator) emitRelational(e *ast.Expr) error {
	isTrue, done := g.newLabel(), g.newLabel()
	if err := g.emitCompareBranch(e.Left, e.Right, e.Op, isTrue); err != nil {
		return err
	}
	g.simple(bytecode.ICONST_0)
	g.jump(bytecode.GOTO, done)
	g.define(isTrue)
	g.simple(bytecode.ICONST_1)
	g.define(done)
	return nil
}
