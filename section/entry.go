package section

import (
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/leb128"
)

// schemaVersion is the only schema_version this implementation writes or
// accepts.
const schemaVersion = 0x00

// EncodeSchema appends the wire representation of a section's schema:
// schema_version, field_count, then per field the data_type_tag
// (plus a scale byte for F64), name_length, name bytes, and the field's
// ULEB128 column_data_size.
func EncodeSchema(dst []byte, schema Schema, columnDataSizes []int) []byte {
	dst = append(dst, schemaVersion, byte(len(schema.Fields)))

	for i, f := range schema.Fields {
		dst = append(dst, byte(f.DataType))
		if f.DataType.HasScale() {
			dst = append(dst, f.Scale)
		}
		dst = append(dst, byte(len(f.Name)))
		dst = append(dst, f.Name...)
		dst = leb128.AppendUvarint(dst, uint64(columnDataSizes[i]))
	}

	return dst
}

// DecodeSchema parses a schema entry from the start of buf, returning the
// parsed Schema, the per-field column_data_size list, and the number of
// bytes consumed.
func DecodeSchema(buf []byte) (Schema, []int, int, error) {
	if len(buf) < 2 {
		return Schema{}, nil, 0, errs.ErrTruncated
	}

	if buf[0] != schemaVersion {
		return Schema{}, nil, 0, &errs.BadTag{Region: "schema_version", Tag: buf[0]}
	}

	fieldCount := int(buf[1])
	offset := 2

	fields := make([]FieldDefinition, fieldCount)
	sizes := make([]int, fieldCount)

	for i := 0; i < fieldCount; i++ {
		if offset >= len(buf) {
			return Schema{}, nil, 0, errs.ErrTruncated
		}

		f := format.DataType(buf[offset])
		if !f.Valid() {
			return Schema{}, nil, 0, &errs.BadTag{Region: "schema", Tag: buf[offset]}
		}
		offset++

		var scale uint8
		if f.HasScale() {
			if offset >= len(buf) {
				return Schema{}, nil, 0, errs.ErrTruncated
			}
			scale = buf[offset]
			offset++
		}

		if offset >= len(buf) {
			return Schema{}, nil, 0, errs.ErrTruncated
		}
		nameLen := int(buf[offset])
		offset++

		if offset+nameLen > len(buf) {
			return Schema{}, nil, 0, errs.ErrTruncated
		}
		name := string(buf[offset : offset+nameLen])
		offset += nameLen

		size, n, err := leb128.Uvarint(buf[offset:])
		if err != nil {
			return Schema{}, nil, 0, err
		}
		offset += n

		fields[i] = FieldDefinition{Name: name, DataType: f, Scale: scale}
		sizes[i] = int(size)
	}

	schema, err := NewSchema(fields)
	if err != nil {
		return Schema{}, nil, 0, err
	}

	return schema, sizes, offset, nil
}
