// Package driver loads unit files produced by the front end, lowers them
// and caches the lowered classes.
package driver

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"pascalc/internal/ast"
	"pascalc/internal/symbols"
	"pascalc/internal/types"
)

// UnitExt is the file extension of unit files.
const UnitExt = ".pcu"

// Current schema version - increment when UnitFile format changes
const unitSchemaVersion uint16 = 1

// UnitFile is the on-disk form of one analysed program: its type table,
// symbol table and resolved statement tree. Type and symbol IDs in Program
// index Types and Symbols.
type UnitFile struct {
	Schema  uint16           `msgpack:"schema"`
	Types   []types.Type     `msgpack:"types"`
	Symbols []symbols.Symbol `msgpack:"symbols"`
	Program *ast.Program     `msgpack:"program"`
}

// Unit is a loaded unit file with its tables rebuilt.
type Unit struct {
	Path    string
	Hash    Digest
	Program *ast.Program
	Types   *types.Interner
	Symbols *symbols.Table
}

// NewUnitFile snapshots the tables of an analysed program.
func NewUnitFile(prog *ast.Program, in *types.Interner, syms *symbols.Table) *UnitFile {
	return &UnitFile{
		Schema:  unitSchemaVersion,
		Types:   in.Snapshot(),
		Symbols: syms.Snapshot(),
		Program: prog,
	}
}

// WriteUnit encodes uf to w.
func WriteUnit(w io.Writer, uf *UnitFile) error {
	if err := msgpack.NewEncoder(w).Encode(uf); err != nil {
		return fmt.Errorf("encode unit: %w", err)
	}
	return nil
}

// MarshalUnit is WriteUnit into a byte slice.
func MarshalUnit(uf *UnitFile) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteUnit(&buf, uf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadUnit reads and decodes the unit file at path.
func LoadUnit(path string) (*Unit, error) {
	// #nosec G304 -- path is a user-supplied input file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit: %w", err)
	}
	u, err := DecodeUnit(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	u.Path = path
	return u, nil
}

// DecodeUnit decodes a unit file and rebuilds its tables.
func DecodeUnit(data []byte) (*Unit, error) {
	var uf UnitFile
	if err := msgpack.Unmarshal(data, &uf); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if uf.Schema != unitSchemaVersion {
		return nil, fmt.Errorf("decode unit: schema %d, want %d", uf.Schema, unitSchemaVersion)
	}
	if uf.Program == nil || uf.Program.Main == nil {
		return nil, fmt.Errorf("decode unit: missing program")
	}
	in, err := types.NewInternerFrom(uf.Types)
	if err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	syms, err := symbols.NewTableFrom(uf.Symbols)
	if err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	return &Unit{
		Hash:    HashBytes(data),
		Program: uf.Program,
		Types:   in,
		Symbols: syms,
	}, nil
}
