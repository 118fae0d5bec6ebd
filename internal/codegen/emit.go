package codegen

import (
	"math"

	"fortio.org/safecast"

	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/symbols"
	"pascalc/internal/types"
)

const (
	scannerField = "_sysin"
	scannerDesc  = "Ljava/util/Scanner;"
)

// emitIntConst pushes v with the shortest encoding.
func (g *Generator) emitIntConst(v int64) error {
	switch {
	case v == -1:
		g.simple(bytecode.ICONST_M1)
	case v >= 0 && v <= 5:
		g.simple(bytecode.ICONST_0 + bytecode.Op(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		g.emit(bytecode.Push(bytecode.BIPUSH, v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		g.emit(bytecode.Push(bytecode.SIPUSH, v))
	default:
		if _, err := safecast.Conv[int32](v); err != nil {
			return diag.Internal(diag.ICEMalformedLiteral, "constant", "integer constant %d does not fit 32 bits", v)
		}
		g.emit(bytecode.LdcInt(v))
	}
	return nil
}

func (g *Generator) emitFloatConst(f float64) {
	switch {
	case f == 0 && !math.Signbit(f):
		g.simple(bytecode.FCONST_0)
	case f == 1:
		g.simple(bytecode.FCONST_1)
	case f == 2:
		g.simple(bytecode.FCONST_2)
	default:
		g.emit(bytecode.LdcFloat(f))
	}
}

// emitLoadConstant pushes the value of a literal expression.
func (g *Generator) emitLoadConstant(e *ast.Expr) error {
	switch e.Kind {
	case ast.ExprIntLit, ast.ExprCharLit:
		return g.emitIntConst(e.Int)
	case ast.ExprRealLit:
		g.emitFloatConst(e.Real)
	case ast.ExprStringLit:
		g.emit(bytecode.LdcString(e.Str))
	case ast.ExprBoolLit:
		if e.Bool {
			g.simple(bytecode.ICONST_1)
		} else {
			g.simple(bytecode.ICONST_0)
		}
	default:
		return diag.Internal(diag.ICEUnsupportedExpr, "constant", "%s is not a literal", e.Kind)
	}
	return nil
}

// widen converts an integral value on the stack to real when dst is real.
func (g *Generator) widen(dst, src types.TypeID) bool {
	if g.types.IsReal(dst) && g.types.IsIntegral(src) {
		g.simple(bytecode.I2F)
		g.stats.Widenings++
		return true
	}
	return false
}

func (g *Generator) loadOp(t types.TypeID) bytecode.Op {
	switch {
	case g.types.IsReal(t):
		return bytecode.FLOAD
	case g.types.IsOrdinal(t):
		return bytecode.ILOAD
	default:
		return bytecode.ALOAD
	}
}

func (g *Generator) storeOp(t types.TypeID) bytecode.Op {
	switch {
	case g.types.IsReal(t):
		return bytecode.FSTORE
	case g.types.IsOrdinal(t):
		return bytecode.ISTORE
	default:
		return bytecode.ASTORE
	}
}

func (g *Generator) returnOp(t types.TypeID) bytecode.Op {
	switch {
	case g.types.KindOf(t) == types.KindVoid:
		return bytecode.RETURN
	case g.types.IsReal(t):
		return bytecode.FRETURN
	case g.types.IsOrdinal(t):
		return bytecode.IRETURN
	default:
		return bytecode.ARETURN
	}
}

func (g *Generator) elemLoadOp(t types.TypeID) bytecode.Op {
	switch g.types.KindOf(t) {
	case types.KindInteger, types.KindEnum:
		return bytecode.IALOAD
	case types.KindReal:
		return bytecode.FALOAD
	case types.KindBoolean:
		return bytecode.BALOAD
	case types.KindChar:
		return bytecode.CALOAD
	default:
		return bytecode.AALOAD
	}
}

func (g *Generator) elemStoreOp(t types.TypeID) bytecode.Op {
	switch g.types.KindOf(t) {
	case types.KindInteger, types.KindEnum:
		return bytecode.IASTORE
	case types.KindReal:
		return bytecode.FASTORE
	case types.KindBoolean:
		return bytecode.BASTORE
	case types.KindChar:
		return bytecode.CASTORE
	default:
		return bytecode.AASTORE
	}
}

func (g *Generator) staticRef(name string) string { return g.opts.Namespace + "/" + name }

// emitScanner pushes the shared input scanner.
func (g *Generator) emitScanner() {
	g.emit(bytecode.Field(bytecode.GETSTATIC, g.staticRef(scannerField), scannerDesc))
}

// emitLoadSym pushes the value a symbol names.
func (g *Generator) emitLoadSym(sym *symbols.Symbol) error {
	switch sym.Kind {
	case symbols.SymbolConstant:
		switch {
		case g.types.IsReal(sym.Type):
			g.emitFloatConst(sym.Real)
		case g.types.IsString(sym.Type):
			g.emit(bytecode.LdcString(sym.Text))
		default:
			return g.emitIntConst(sym.Value)
		}
		return nil
	case symbols.SymbolEnumConstant:
		return g.emitIntConst(sym.Value)
	case symbols.SymbolVariable, symbols.SymbolParam:
		if sym.IsStatic() {
			g.emit(bytecode.Field(bytecode.GETSTATIC, g.staticRef(sym.Name), g.types.Descriptor(sym.Type)))
			return nil
		}
		g.emit(bytecode.Local(g.loadOp(sym.Type), sym.Slot))
		return nil
	case symbols.SymbolFunction:
		if g.isResult(sym) {
			g.emit(bytecode.Local(g.loadOp(sym.Type), sym.Slot))
			return nil
		}
	}
	return diag.Internal(diag.ICEUnresolvedSymbol, "load", "%s %q has no value to load", sym.Kind, sym.Name)
}

// emitStoreSym stores the top of the stack into the variable sym names.
func (g *Generator) emitStoreSym(sym *symbols.Symbol) error {
	switch {
	case sym.IsStatic():
		g.emit(bytecode.Field(bytecode.PUTSTATIC, g.staticRef(sym.Name), g.types.Descriptor(sym.Type)))
	case sym.Kind == symbols.SymbolVariable, sym.Kind == symbols.SymbolParam:
		g.emit(bytecode.Local(g.storeOp(sym.Type), sym.Slot))
	case g.isResult(sym):
		g.emit(bytecode.Local(g.storeOp(sym.Type), sym.Slot))
	default:
		return diag.Internal(diag.ICEUnresolvedSymbol, "store", "cannot store into %s %q", sym.Kind, sym.Name)
	}
	return nil
}

// isResult reports whether sym is the function whose body is being lowered.
func (g *Generator) isResult(sym *symbols.Symbol) bool {
	if sym.Kind != symbols.SymbolFunction || !g.routine.IsValid() {
		return false
	}
	cur, ok := g.syms.Get(g.routine)
	return ok && cur == sym
}

// emitSelector emits the operand a modifier needs on top of its container:
// nothing for a field, the zero-based index for a subscript.
func (g *Generator) emitSelector(container types.TypeID, m *ast.Modifier) error {
	ct, ok := g.types.Lookup(g.types.BaseType(container))
	if !ok {
		return diag.Internal(diag.ICEModifierMismatch, "modifier", "container type %d is unknown", container)
	}
	switch m.Kind {
	case ast.ModField:
		if ct.Kind != types.KindRecord {
			return diag.Internal(diag.ICEModifierMismatch, "modifier", "field access on %s", g.types.String(container))
		}
		return nil
	case ast.ModIndex:
		if ct.Kind != types.KindArray {
			return diag.Internal(diag.ICEModifierMismatch, "modifier", "subscript on %s", g.types.String(container))
		}
		if err := g.EmitExpr(m.Index); err != nil {
			return err
		}
		if !g.types.IsOrdinal(m.Index.Type) {
			return diag.Internal(diag.ICETypeMismatch, "modifier", "subscript of type %s", g.types.String(m.Index.Type))
		}
		if ct.Low != 0 {
			if err := g.emitIntConst(ct.Low); err != nil {
				return err
			}
			g.simple(bytecode.ISUB)
		}
		return nil
	}
	return diag.Internal(diag.ICEModifierMismatch, "modifier", "unknown modifier kind %d", m.Kind)
}

// fieldRef returns the PUTFIELD/GETFIELD operands of a field modifier.
func (g *Generator) fieldRef(container types.TypeID, m *ast.Modifier) (member, desc string, err error) {
	fs, err := g.symbol("field", m.Field)
	if err != nil {
		return "", "", err
	}
	if fs.Kind != symbols.SymbolField {
		return "", "", diag.Internal(diag.ICEModifierMismatch, "field", "%q is a %s, not a field", fs.Name, fs.Kind)
	}
	rec := g.types.MustLookup(g.types.BaseType(container))
	return rec.Name + "/" + fs.Name, g.types.Descriptor(fs.Type), nil
}

// emitSelect applies one modifier to the container on the stack.
func (g *Generator) emitSelect(container types.TypeID, m *ast.Modifier) error {
	if err := g.emitSelector(container, m); err != nil {
		return err
	}
	if m.Kind == ast.ModField {
		member, desc, err := g.fieldRef(container, m)
		if err != nil {
			return err
		}
		g.emit(bytecode.Field(bytecode.GETFIELD, member, desc))
		return nil
	}
	g.simple(g.elemLoadOp(m.Type))
	return nil
}

// emitLoadVar pushes the value of a variable reference.
func (g *Generator) emitLoadVar(v *ast.Variable) error {
	if v == nil {
		return diag.Internal(diag.ICEUnresolvedSymbol, "load", "missing variable reference")
	}
	sym, err := g.symbol("load", v.Sym)
	if err != nil {
		return err
	}
	if err := g.emitLoadSym(sym); err != nil {
		return err
	}
	cur := sym.Type
	for i := range v.Modifiers {
		if err := g.emitSelect(cur, &v.Modifiers[i]); err != nil {
			return err
		}
		cur = v.Modifiers[i].Type
	}
	return nil
}

// storeTarget is a variable reference whose addressing prefix is already on
// the stack.
type storeTarget struct {
	sym       *symbols.Symbol
	typ       types.TypeID // type of the stored value
	last      *ast.Modifier
	container types.TypeID
}

// beginStore emits the addressing prefix of v: the container with every
// modifier but the last applied, then the last subscript's index.
func (g *Generator) beginStore(v *ast.Variable) (storeTarget, error) {
	if v == nil {
		return storeTarget{}, diag.Internal(diag.ICEUnresolvedSymbol, "store", "missing target variable")
	}
	sym, err := g.symbol("store", v.Sym)
	if err != nil {
		return storeTarget{}, err
	}
	t := storeTarget{sym: sym, typ: v.Type}
	last, ok := v.Last()
	if !ok {
		return t, nil
	}
	if err := g.emitLoadSym(sym); err != nil {
		return t, err
	}
	cur := sym.Type
	for i := range len(v.Modifiers) - 1 {
		if err := g.emitSelect(cur, &v.Modifiers[i]); err != nil {
			return t, err
		}
		cur = v.Modifiers[i].Type
	}
	if err := g.emitSelector(cur, last); err != nil {
		return t, err
	}
	t.last, t.container = last, cur
	return t, nil
}

// finishStore consumes the value above the prefix emitted by beginStore.
func (g *Generator) finishStore(t storeTarget) error {
	switch {
	case t.last == nil:
		return g.emitStoreSym(t.sym)
	case t.last.Kind == ast.ModField:
		member, desc, err := g.fieldRef(t.container, t.last)
		if err != nil {
			return err
		}
		g.emit(bytecode.Field(bytecode.PUTFIELD, member, desc))
	default:
		g.simple(g.elemStoreOp(t.typ))
	}
	return nil
}
