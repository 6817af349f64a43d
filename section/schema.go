// Package section implements Section writing and reading: row
// accumulation into a presence bitmap plus per-column delta/LEB128 buffers,
// CRC-guarded emission, and CRC-validated, schema-projected decoding.
package section

import (
	"unicode/utf8"

	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
)

// FieldDefinition names one column of a Schema: a name (at most 255
// UTF-8 bytes on the wire) and its DataType. F64 additionally carries a
// decimal Scale; Scale is ignored for every other DataType.
type FieldDefinition struct {
	Name     string
	DataType format.DataType
	Scale    uint8
}

// Schema is the ordered, immutable column list of a Section. Order is
// the on-disk column order.
type Schema struct {
	Fields []FieldDefinition
}

// NewSchema validates fields and returns a Schema. Field names must be
// unique, at most 255 UTF-8 bytes, and valid UTF-8 (unlike column String
// values, an invalid-UTF-8 schema name is a fatal error, not something to
// substitute and carry on from); data types must be one of the defined
// data type tags.
func NewSchema(fields []FieldDefinition) (Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !f.DataType.Valid() {
			return Schema{}, &errs.BadTag{Region: "schema", Tag: byte(f.DataType)}
		}
		if len(f.Name) > 255 {
			return Schema{}, &errs.SchemaViolation{Reason: "field name exceeds 255 bytes: " + f.Name}
		}
		if !utf8.ValidString(f.Name) {
			return Schema{}, errs.ErrInvalidUTF8
		}
		if _, dup := seen[f.Name]; dup {
			return Schema{}, &errs.SchemaViolation{Reason: "duplicate field name: " + f.Name}
		}
		seen[f.Name] = struct{}{}
	}

	return Schema{Fields: fields}, nil
}

// IndexOf returns the position of name in the schema, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}
