// Package label implements the arena of branch targets used while lowering
// one routine. A label is defined at most once and may be referenced any
// number of times before or after its definition.
package label

import (
	"fmt"
	"math"

	"fortio.org/safecast"

	"pascalc/internal/diag"
)

// ID is an opaque handle into an Arena.
type ID uint32

// NoID marks the absence of a label.
const NoID ID = 0

// IsValid reports whether the handle was issued by an arena.
func (id ID) IsValid() bool { return id != NoID }

func (id ID) String() string { return fmt.Sprintf("L%03d", uint32(id)) }

const undefined = -1

type slot struct {
	pos  int
	refs int
}

// Arena owns every label of one routine.
type Arena struct {
	slots []slot
	limit int
	err   error // sticky; set when New runs out of handles
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return newArena(math.MaxUint32)
}

func newArena(limit int) *Arena {
	return &Arena{slots: make([]slot, 1, 16), limit: limit} // reserve 0
}

// New allocates a fresh, undefined label. Once the arena is out of handles
// it returns NoID and Check reports ICELabelOverflow.
func (a *Arena) New() ID {
	if a.err != nil {
		return NoID
	}
	n, err := safecast.Conv[uint32](len(a.slots))
	if err == nil && len(a.slots) > a.limit {
		err = fmt.Errorf("limit %d reached", a.limit)
	}
	if err != nil {
		a.err = diag.Internal(diag.ICELabelOverflow, "label", "cannot allocate label %d: %v", len(a.slots), err)
		return NoID
	}
	a.slots = append(a.slots, slot{pos: undefined})
	return ID(n)
}

// Err returns the overflow error, if any.
func (a *Arena) Err() error { return a.err }

func (a *Arena) get(id ID) (*slot, bool) {
	if !id.IsValid() || int(id) >= len(a.slots) {
		return nil, false
	}
	return &a.slots[id], true
}

// Define binds the label to an instruction position. A second definition is
// an internal error.
func (a *Arena) Define(id ID, pos int) error {
	if a.err != nil {
		return a.err
	}
	s, ok := a.get(id)
	if !ok {
		return diag.Internal(diag.ICEUndefinedLabel, "label", "define of unknown label %s", id)
	}
	if s.pos != undefined {
		return diag.Internal(diag.ICELabelRedefined, "label", "%s already defined at %d, redefined at %d", id, s.pos, pos)
	}
	s.pos = pos
	return nil
}

// Reference records a use of the label as a branch operand.
func (a *Arena) Reference(id ID) error {
	if a.err != nil {
		return a.err
	}
	s, ok := a.get(id)
	if !ok {
		return diag.Internal(diag.ICEUndefinedLabel, "label", "reference to unknown label %s", id)
	}
	s.refs++
	return nil
}

// Position returns the defined position of the label.
func (a *Arena) Position(id ID) (int, bool) {
	s, ok := a.get(id)
	if !ok || s.pos == undefined {
		return 0, false
	}
	return s.pos, true
}

// Refs returns how many times the label has been referenced.
func (a *Arena) Refs(id ID) int {
	s, ok := a.get(id)
	if !ok {
		return 0
	}
	return s.refs
}

// Len reports how many labels have been allocated.
func (a *Arena) Len() int { return len(a.slots) - 1 }

// Unresolved lists labels that are referenced but never defined.
func (a *Arena) Unresolved() []ID {
	var out []ID
	for i := 1; i < len(a.slots); i++ {
		if a.slots[i].refs > 0 && a.slots[i].pos == undefined {
			out = append(out, ID(i)) //nolint:gosec // bounded by New
		}
	}
	return out
}

// Check fails with the overflow error if New ran out of handles, and with
// ICEUndefinedLabel if any referenced label is undefined.
func (a *Arena) Check() error {
	if a.err != nil {
		return a.err
	}
	missing := a.Unresolved()
	if len(missing) == 0 {
		return nil
	}
	return diag.Internal(diag.ICEUndefinedLabel, "label", "%d label(s) referenced but never defined, first %s", len(missing), missing[0])
}
