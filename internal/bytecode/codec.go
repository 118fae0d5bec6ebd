package bytecode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// classSchemaVersion is bumped whenever Class's encoded layout changes.
const classSchemaVersion uint16 = 1

type classEnvelope struct {
	Schema uint16 `msgpack:"schema"`
	Class  *Class `msgpack:"class"`
}

// EncodeClass writes c in the msgpack class format.
func EncodeClass(w io.Writer, c *Class) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&classEnvelope{Schema: classSchemaVersion, Class: c})
}

// DecodeClass reads a class written by EncodeClass.
func DecodeClass(r io.Reader) (*Class, error) {
	var env classEnvelope
	if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode class: %w", err)
	}
	if env.Schema != classSchemaVersion {
		return nil, fmt.Errorf("decode class: schema %d, want %d", env.Schema, classSchemaVersion)
	}
	if env.Class == nil {
		return nil, fmt.Errorf("decode class: empty payload")
	}
	return env.Class, nil
}

// MarshalClass is EncodeClass into a byte slice.
func MarshalClass(c *Class) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeClass(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
