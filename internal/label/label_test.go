package label_test

import (
	"errors"
	"testing"

	"pascalc/internal/diag"
	"pascalc/internal/label"
)

func TestDefineOnce(t *testing.T) {
	a := label.NewArena()
	l := a.New()
	if err := a.Define(l, 4); err != nil {
		t.Fatalf("first define: %v", err)
	}
	err := a.Define(l, 9)
	if !errors.Is(err, diag.ICELabelRedefined) {
		t.Fatalf("second define: got %v, want ICELabelRedefined", err)
	}
	if pos, ok := a.Position(l); !ok || pos != 4 {
		t.Fatalf("position = %d,%v want 4,true", pos, ok)
	}
}

func TestReferenceBeforeDefine(t *testing.T) {
	a := label.NewArena()
	fwd := a.New()
	if err := a.Reference(fwd); err != nil {
		t.Fatalf("reference: %v", err)
	}
	if err := a.Check(); !errors.Is(err, diag.ICEUndefinedLabel) {
		t.Fatalf("Check before define: got %v", err)
	}
	if err := a.Define(fwd, 2); err != nil {
		t.Fatalf("define: %v", err)
	}
	if err := a.Check(); err != nil {
		t.Fatalf("Check after define: %v", err)
	}
	if a.Refs(fwd) != 1 {
		t.Fatalf("refs = %d", a.Refs(fwd))
	}
}

func TestUnknownLabel(t *testing.T) {
	a := label.NewArena()
	if err := a.Reference(label.ID(42)); !errors.Is(err, diag.ICEUndefinedLabel) {
		t.Fatalf("got %v", err)
	}
	if err := a.Define(label.NoID, 0); err == nil {
		t.Fatalf("defining NoID must fail")
	}
}

func TestUnreferencedUndefinedIsFine(t *testing.T) {
	a := label.NewArena()
	a.New()
	if err := a.Check(); err != nil {
		t.Fatalf("unreferenced label should not fail Check: %v", err)
	}
	if a.Len() != 1 {
		t.Fatalf("Len = %d", a.Len())
	}
}
