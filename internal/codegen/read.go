package codegen

import (
	"pascalc/internal/ast"
	"pascalc/internal/bytecode"
	"pascalc/internal/diag"
	"pascalc/internal/types"
)

const (
	scannerNextInt      = "java/util/Scanner/nextInt()I"
	scannerNextFloat    = "java/util/Scanner/nextFloat()F"
	scannerNextBoolean  = "java/util/Scanner/nextBoolean()Z"
	scannerNext         = "java/util/Scanner/next()Ljava/lang/String;"
	scannerNextLine     = "java/util/Scanner/nextLine()Ljava/lang/String;"
	scannerUseDelimiter = "java/util/Scanner/useDelimiter(Ljava/lang/String;)Ljava/util/Scanner;"
	scannerReset        = "java/util/Scanner/reset()Ljava/util/Scanner;"
	stringCharAt        = "java/lang/String/charAt(I)C"
)

// lowerRead reads each target from the shared scanner in source order, by
// the target's type, and for readln drops the rest of the line.
func (g *Generator) lowerRead(s *ast.ReadStmt, skipLine bool) error {
	var targets []*ast.Variable
	if s != nil {
		targets = s.Targets
	}
	for _, v := range targets {
		if err := g.readInto(v); err != nil {
			return err
		}
	}
	if skipLine {
		g.emitScanner()
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerNextLine))
		g.simple(bytecode.POP)
	}
	return nil
}

func (g *Generator) readInto(v *ast.Variable) error {
	if v == nil {
		return diag.Internal(diag.ICEUnresolvedSymbol, "read", "missing target variable")
	}
	target, err := g.beginStore(v)
	if err != nil {
		return err
	}
	// the store's own type governs, not a declared-type hint
	t := v.Type
	if target.last == nil {
		t = target.sym.Type
	}
	switch g.types.KindOf(t) {
	case types.KindInteger:
		g.emitScanner()
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerNextInt))
	case types.KindReal:
		g.emitScanner()
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerNextFloat))
	case types.KindBoolean:
		g.emitScanner()
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerNextBoolean))
	case types.KindChar:
		// one character: switch the delimiter off, take the next token's
		// first char, then restore the default delimiter
		g.emitScanner()
		g.emit(bytecode.LdcString(""))
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerUseDelimiter))
		g.simple(bytecode.POP)
		g.emitScanner()
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerNext))
		g.simple(bytecode.ICONST_0)
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, stringCharAt))
		if err := g.finishStore(target); err != nil {
			return err
		}
		g.emitScanner()
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerReset))
		g.simple(bytecode.POP)
		return nil
	case types.KindString:
		g.emitScanner()
		g.emit(bytecode.Invoke(bytecode.INVOKEVIRTUAL, scannerNext))
	default:
		return diag.Internal(diag.ICETypeMismatch, "read", "cannot read a value of type %s", g.types.String(t))
	}
	return g.finishStore(target)
}
