package bytecode

import "pascalc/internal/label"

// FieldDef declares a class or record field.
type FieldDef struct {
	Name   string `msgpack:"name"`
	Desc   string `msgpack:"desc"`
	Static bool   `msgpack:"static,omitempty"`
}

// LabelDef records where a label was defined, for listings.
type LabelDef struct {
	Label label.ID `msgpack:"label"`
	Pos   int      `msgpack:"pos"`
}

// Method is a resolved routine body.
type Method struct {
	Name      string     `msgpack:"name"`
	Desc      string     `msgpack:"desc"`
	Static    bool       `msgpack:"static,omitempty"`
	MaxLocals int        `msgpack:"max_locals"`
	MaxStack  int        `msgpack:"max_stack"`
	Code      []Instr    `msgpack:"code"`
	Labels    []LabelDef `msgpack:"labels,omitempty"`
}

// Record is a data-only class generated for a Pascal record type.
type Record struct {
	Name   string     `msgpack:"name"`
	Fields []FieldDef `msgpack:"fields,omitempty"`
}

// Class is the lowered form of one program.
type Class struct {
	Name    string     `msgpack:"name"`
	Super   string     `msgpack:"super"`
	Fields  []FieldDef `msgpack:"fields,omitempty"`
	Methods []*Method  `msgpack:"methods,omitempty"`
	Records []Record   `msgpack:"records,omitempty"`
}

// Method looks a method up by name.
func (c *Class) Method(name string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Record looks a record class up by name.
func (c *Class) Record(name string) (*Record, bool) {
	for i := range c.Records {
		if c.Records[i].Name == name {
			return &c.Records[i], true
		}
	}
	return nil, false
}
