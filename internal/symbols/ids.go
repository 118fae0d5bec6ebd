package symbols

// SymbolID identifies a symbol inside the table arena.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }
