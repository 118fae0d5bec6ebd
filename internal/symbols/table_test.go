package symbols

import (
	"testing"

	"pascalc/internal/types"
)

func TestTableParamsInOrder(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	tab := NewTable(8)
	x := tab.Add(Symbol{Name: "x", Kind: SymbolParam, Type: b.Real, Level: 1, Slot: 0})
	n := tab.Add(Symbol{Name: "n", Kind: SymbolParam, Type: b.Integer, Level: 1, Slot: 1})
	fn := tab.Add(Symbol{Name: "scale", Kind: SymbolFunction, Type: b.Real, Params: []SymbolID{x, n}})

	params, err := tab.Params(fn)
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if len(params) != 2 || params[0].Name != "x" || params[1].Name != "n" {
		t.Fatalf("unexpected params: %+v", params)
	}
	if got := tab.ReturnType(fn, in); got != b.Real {
		t.Fatalf("ReturnType = %d, want real", got)
	}
}

func TestTableParamsRejectsVariable(t *testing.T) {
	in := types.NewInterner()
	tab := NewTable(2)
	v := tab.Add(Symbol{Name: "v", Kind: SymbolVariable, Type: in.Builtins().Integer})
	if _, err := tab.Params(v); err == nil {
		t.Fatalf("expected error for non-routine symbol")
	}
	if got := tab.ReturnType(v, in); got != in.Builtins().Void {
		t.Fatalf("non-function ReturnType should be void")
	}
}

func TestNewTableFromValidatesReferences(t *testing.T) {
	tab := NewTable(2)
	tab.Add(Symbol{Name: "p", Kind: SymbolProcedure, Params: []SymbolID{7}})
	if _, err := NewTableFrom(tab.Snapshot()); err == nil {
		t.Fatalf("expected dangling parameter reference to be rejected")
	}
}

func TestIsStatic(t *testing.T) {
	global := &Symbol{Kind: SymbolVariable, Level: 0}
	local := &Symbol{Kind: SymbolVariable, Level: 1}
	if !global.IsStatic() || local.IsStatic() {
		t.Fatalf("IsStatic mismatch: global=%v local=%v", global.IsStatic(), local.IsStatic())
	}
}
