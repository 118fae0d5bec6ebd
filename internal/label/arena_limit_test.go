package label

import (
	"errors"
	"testing"

	"pascalc/internal/diag"
)

func TestNewReportsOverflow(t *testing.T) {
	a := newArena(2)
	first, second := a.New(), a.New()
	if !first.IsValid() || !second.IsValid() {
		t.Fatalf("labels within the limit: %v %v", first, second)
	}
	if err := a.Check(); err != nil {
		t.Fatalf("Check before overflow: %v", err)
	}
	if id := a.New(); id != NoID {
		t.Fatalf("New past the limit = %v, want NoID", id)
	}
	if id := a.New(); id != NoID {
		t.Fatalf("New after overflow = %v, want NoID", id)
	}
	if a.Len() != 2 {
		t.Fatalf("Len = %d, want 2", a.Len())
	}
	err := a.Check()
	if !errors.Is(err, diag.ICELabelOverflow) || !errors.Is(a.Err(), diag.ICELabelOverflow) {
		t.Fatalf("Check = %v, want ICELabelOverflow", err)
	}
	if err := a.Reference(NoID); !errors.Is(err, diag.ICELabelOverflow) {
		t.Fatalf("Reference after overflow = %v", err)
	}
	if err := a.Define(first, 0); !errors.Is(err, diag.ICELabelOverflow) {
		t.Fatalf("Define after overflow = %v", err)
	}
	if _, ok := diag.AsInternal(err); !ok {
		t.Fatalf("overflow is not an internal error: %T", err)
	}
}
