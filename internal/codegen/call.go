package codegen

import (
	"strings"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/types"
)

// encodeCall evaluates the actual arguments in parameter order, widening an
// integral actual passed to a real formal, and emits the INVOKESTATIC.
// The returned CallSite is also folded into the generator's Stats.
func (g *Generator) encodeCall(c *ast.Call) (CallSite, error) {
	var cs CallSite
	if c == nil {
		return cs, diag.Internal(diag.ICEUnknownRoutine, "call", "missing call")
	}
	callee, ok := g.syms.Get(c.Routine)
	if !ok || !callee.IsRoutine() {
		return cs, diag.Internal(diag.ICEUnknownRoutine, "call", "symbol %d is not a procedure or function", c.Routine)
	}
	params, err := g.syms.Params(c.Routine)
	if err != nil {
		return cs, diag.Internal(diag.ICEUnresolvedSymbol, "call", "%v", err)
	}
	if len(params) != len(c.Args) {
		return cs, diag.Internal(diag.ICEArityMismatch, "call",
			"%s %q takes %d argument(s), call passes %d", callee.Kind, callee.Name, len(params), len(c.Args))
	}

	ret := g.syms.ReturnType(c.Routine, g.types)
	var sig strings.Builder
	sig.WriteString(g.opts.Namespace)
	sig.WriteByte('/')
	sig.WriteString(callee.Name)
	sig.WriteByte('(')
	for i, p := range params {
		arg := c.Args[i]
		if err := g.EmitExpr(arg); err != nil {
			return cs, err
		}
		desc := g.types.Descriptor(p.Type)
		if desc == "F" && g.types.IsIntegral(arg.Type) {
			g.simple(bytecode.I2F)
			cs.Widenings++
		}
		sig.WriteString(desc)
	}
	sig.WriteByte(')')
	sig.WriteString(g.types.Descriptor(ret))

	cs.Target = sig.String()
	cs.Arity = len(params)
	cs.Void = g.types.KindOf(ret) == types.KindVoid
	g.emit(bytecode.Invoke(bytecode.INVOKESTATIC, cs.Target))
	g.stats.addCall(cs)
	return cs, nil
}

func (g *Generator) lowerProcCall(c *ast.Call) error {
	if c == nil {
		return payload(ast.StmtProcCall)
	}
	_, err := g.encodeCall(c)
	return err
}

// lowerFuncCall discards the result of a function called as a statement.
func (g *Generator) lowerFuncCall(c *ast.Call) error {
	if c == nil {
		return payload(ast.StmtFuncCall)
	}
	cs, err := g.encodeCall(c)
	if err != nil {
		return err
	}
	if !cs.Void {
		g.simple(bytecode.POP)
	}
	return nil
}

// EncodeCall is encodeCall for expression emitters outside this package.
func (g *Generator) EncodeCall(c *ast.Call) (CallSite, error) { return g.encodeCall(c) }
