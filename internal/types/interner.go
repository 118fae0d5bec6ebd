package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the predefined Pascal types.
type Builtins struct {
	Void    TypeID
	Integer TypeID
	Real    TypeID
	Boolean TypeID
	Char    TypeID
	String  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Records and enumerations are nominal and always get a fresh id.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with the predefined types.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 32),
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Integer = in.Intern(Type{Kind: KindInteger})
	in.builtins.Real = in.Intern(Type{Kind: KindReal})
	in.builtins.Boolean = in.Intern(Type{Kind: KindBoolean})
	in.builtins.Char = in.Intern(Type{Kind: KindChar})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	return in
}

// NewInternerFrom rebuilds an interner from a Snapshot. The predefined types
// must occupy the same leading slots NewInterner gives them.
func NewInternerFrom(snapshot []Type) (*Interner, error) {
	in := NewInterner()
	if len(snapshot) < len(in.types) {
		return nil, fmt.Errorf("types: snapshot has %d entries, need at least %d", len(snapshot), len(in.types))
	}
	for i := range in.types {
		if snapshot[i].Kind != in.types[i].Kind {
			return nil, fmt.Errorf("types: snapshot slot %d is %s, want %s", i, snapshot[i].Kind, in.types[i].Kind)
		}
	}
	for _, t := range snapshot[len(in.types):] {
		if t.Kind == KindInvalid {
			return nil, fmt.Errorf("types: invalid descriptor in snapshot")
		}
		in.internRaw(t)
	}
	return in, nil
}

// Snapshot returns a copy of every descriptor indexed by TypeID.
func (in *Interner) Snapshot() []Type {
	out := make([]Type, len(in.types))
	copy(out, in.types)
	return out
}

// Builtins returns TypeIDs for predefined types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Len reports how many ids (including the reserved zero slot) are allocated.
func (in *Interner) Len() int { return len(in.types) }

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if t.Kind == KindRecord || t.Kind == KindEnum {
		return in.internRaw(t)
	}
	if id, ok := in.index[keyOf(t)]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	if t.Kind != KindRecord && t.Kind != KindEnum {
		key := keyOf(t)
		if _, ok := in.index[key]; !ok {
			in.index[key] = id
		}
	}
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (*Type, bool) {
	if in == nil || id == NoTypeID || int(id) >= len(in.types) {
		return nil, false
	}
	return &in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) *Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: invalid TypeID %d", id))
	}
	return tt
}

type typeKey struct {
	Kind Kind
	Elem TypeID
	Low  int64
	High int64
}

func keyOf(t Type) typeKey {
	return typeKey{Kind: t.Kind, Elem: t.Elem, Low: t.Low, High: t.High}
}
