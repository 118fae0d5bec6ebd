package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Integer == NoTypeID || b.Real == NoTypeID || b.String == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if got := in.KindOf(b.Char); got != KindChar {
		t.Fatalf("expected char kind, got %v", got)
	}
}

func TestInternerDeduplicatesStructuralTypes(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Integer
	arr1 := in.Intern(MakeArray(elem, 1, 10))
	arr2 := in.Intern(MakeArray(elem, 1, 10))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	rec1 := in.Intern(MakeRecord("P", Field{Name: "x", Type: elem}))
	rec2 := in.Intern(MakeRecord("P", Field{Name: "x", Type: elem}))
	if rec1 == rec2 {
		t.Fatalf("records are nominal and must not be deduplicated")
	}
}

func TestSubrangeBaseType(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	digit := in.Intern(MakeSubrange(b.Integer, 0, 9))
	letter := in.Intern(MakeSubrange(b.Char, 'a', 'z'))
	if !in.IsIntegral(digit) || in.IsReal(digit) {
		t.Fatalf("integer subrange should be integral")
	}
	if !in.IsChar(letter) || in.Descriptor(letter) != "C" {
		t.Fatalf("char subrange should encode as C, got %q", in.Descriptor(letter))
	}
}

func TestDescriptor(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	color := in.Intern(MakeEnum("Color", "red", "green"))
	vec := in.Intern(MakeArray(b.Real, 0, 2))
	point := in.Intern(MakeRecord("Point", Field{Name: "x", Type: b.Real}))

	tests := []struct {
		id   TypeID
		want string
	}{
		{b.Void, "V"},
		{b.Integer, "I"},
		{b.Real, "F"},
		{b.Boolean, "Z"},
		{b.Char, "C"},
		{b.String, "Ljava/lang/String;"},
		{color, "I"},
		{vec, "[F"},
		{point, "LPoint;"},
	}
	for _, tt := range tests {
		if got := in.Descriptor(tt.id); got != tt.want {
			t.Errorf("Descriptor(%s) = %q, want %q", in.String(tt.id), got, tt.want)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	rec := in.Intern(MakeRecord("Point", Field{Name: "x", Type: b.Integer}))
	arr := in.Intern(MakeArray(rec, 1, 3))

	back, err := NewInternerFrom(in.Snapshot())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if back.Descriptor(arr) != "[LPoint;" {
		t.Fatalf("restored array descriptor = %q", back.Descriptor(arr))
	}
	if f, ok := back.Field(rec, "X"); !ok || f.Type != b.Integer {
		t.Fatalf("field lookup should be case-insensitive, got %+v %v", f, ok)
	}
	if n, _ := back.ArrayLength(arr); n != 3 {
		t.Fatalf("array length = %d, want 3", n)
	}
}

func TestSnapshotRejectsForeignPrefix(t *testing.T) {
	if _, err := NewInternerFrom([]Type{{Kind: KindInvalid}, {Kind: KindReal}}); err == nil {
		t.Fatalf("expected error for short snapshot")
	}
}
