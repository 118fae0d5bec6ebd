package ast

import "pascalc/internal/symbols"

// Routine is a procedure or function body bound to its symbol.
type Routine struct {
	Sym  symbols.SymbolID `msgpack:"sym"`
	Body *Stmt            `msgpack:"body"`
}

// Program is a compilation unit: the program symbol (whose Locals are the
// program-level variables), its routines and the main statement.
type Program struct {
	Name     string           `msgpack:"name"`
	Sym      symbols.SymbolID `msgpack:"sym"`
	Routines []Routine        `msgpack:"routines,omitempty"`
	Main     *Stmt            `msgpack:"main"`
}
