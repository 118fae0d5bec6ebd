package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"pascalc/internal/types"
)

// Table is the arena of resolved symbols for one compilation unit.
type Table struct {
	syms []Symbol
}

// NewTable builds an empty table with room for capHint symbols.
func NewTable(capHint uint) *Table {
	c, err := safecast.Conv[int](capHint)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	t := &Table{syms: make([]Symbol, 1, c+1)} // reserve 0
	return t
}

// NewTableFrom rebuilds a table from a Snapshot.
func NewTableFrom(snapshot []Symbol) (*Table, error) {
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("symbols: empty snapshot")
	}
	if snapshot[0].Kind != SymbolInvalid {
		return nil, fmt.Errorf("symbols: snapshot slot 0 must be reserved, got %s", snapshot[0].Kind)
	}
	t := &Table{syms: make([]Symbol, len(snapshot))}
	copy(t.syms, snapshot)
	for i := 1; i < len(t.syms); i++ {
		s := &t.syms[i]
		for _, ref := range append(append([]SymbolID(nil), s.Params...), s.Locals...) {
			if !ref.IsValid() || int(ref) >= len(t.syms) {
				return nil, fmt.Errorf("symbols: %s %q references unknown symbol %d", s.Kind, s.Name, ref)
			}
		}
	}
	return t, nil
}

// Snapshot returns a copy of all symbols indexed by SymbolID.
func (t *Table) Snapshot() []Symbol {
	out := make([]Symbol, len(t.syms))
	copy(out, t.syms)
	return out
}

// Len reports the number of allocated slots including the reserved zero.
func (t *Table) Len() int { return len(t.syms) }

// Add appends a symbol and returns its id.
func (t *Table) Add(sym Symbol) SymbolID {
	n, err := safecast.Conv[uint32](len(t.syms))
	if err != nil {
		panic(fmt.Errorf("symbol table overflow: %w", err))
	}
	t.syms = append(t.syms, sym)
	return SymbolID(n)
}

// Get returns the symbol for id.
func (t *Table) Get(id SymbolID) (*Symbol, bool) {
	if t == nil || !id.IsValid() || int(id) >= len(t.syms) {
		return nil, false
	}
	return &t.syms[id], true
}

// MustGet panics when id is invalid.
func (t *Table) MustGet(id SymbolID) *Symbol {
	s, ok := t.Get(id)
	if !ok {
		panic(fmt.Sprintf("symbols: invalid SymbolID %d", id))
	}
	return s
}

// Params resolves the ordered parameter list of a routine.
func (t *Table) Params(routine SymbolID) ([]*Symbol, error) {
	r, ok := t.Get(routine)
	if !ok {
		return nil, fmt.Errorf("symbols: unknown routine %d", routine)
	}
	if !r.IsRoutine() {
		return nil, fmt.Errorf("symbols: %q is a %s, not a routine", r.Name, r.Kind)
	}
	out := make([]*Symbol, 0, len(r.Params))
	for _, pid := range r.Params {
		p, ok := t.Get(pid)
		if !ok {
			return nil, fmt.Errorf("symbols: routine %q has unknown parameter %d", r.Name, pid)
		}
		out = append(out, p)
	}
	return out, nil
}

// ReturnType returns the result type of a routine; procedures return void.
func (t *Table) ReturnType(routine SymbolID, in *types.Interner) types.TypeID {
	r, ok := t.Get(routine)
	if !ok || r.Kind != SymbolFunction {
		return in.Builtins().Void
	}
	return r.Type
}
