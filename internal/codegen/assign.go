package codegen

import (
	"pascalc/internal/ast"
	"pascalc/internal/diag"
)

// lowerAssign emits the target's addressing prefix, the value, an I2F when
// an integral value lands in a real target, and the store.
func (g *Generator) lowerAssign(a *ast.AssignStmt) error {
	if a == nil || a.Target == nil || a.Value == nil {
		return payload(ast.StmtAssign)
	}
	if g.types.IsIntegral(a.Target.Type) && g.types.IsReal(a.Value.Type) {
		return diag.Internal(diag.ICETypeMismatch, "assign", "real value assigned to %s target", g.types.String(a.Target.Type))
	}
	target, err := g.beginStore(a.Target)
	if err != nil {
		return err
	}
	if err := g.EmitExpr(a.Value); err != nil {
		return err
	}
	g.widen(a.Target.Type, a.Value.Type)
	return g.finishStore(target)
}
