package rwtf

import (
	"github.com/ridewithgps/rwtf/column"
	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
)

// LegacyField describes one field of a v0 file: v0 has no multi-column
// schema, each section carries exactly one named, densely-populated column.
type LegacyField struct {
	Name      string
	FieldType format.LegacyFieldType
	Rows      int
	data      []byte // raw encoded column bytes, CRC already verified
}

// LegacyTrackReader reads a v0 file read-only. v0 predates the columnar
// Schema/Section model: every section is a single field, every row is
// present (there is no presence bitmap), and the whole column region is
// guarded by one CRC-32/IEEE checksum instead of a per-column CRC-32/BZIP2.
type LegacyTrackReader struct {
	metadata Metadata
	fields   []LegacyField
}

func newLegacyTrackReader(data []byte, h header) (*TrackReader, error) {
	lr, err := parseLegacyTrack(data, h)
	if err != nil {
		return nil, err
	}

	return &TrackReader{
		data:     data,
		version:  h.fileVersion,
		metadata: lr.metadata,
		legacy:   lr,
	}, nil
}

// parseLegacyTrack parses the v0 metadata table (2-byte little-endian entry
// sizes, fixed-width TrackType/CreatedAt payloads) and then the section
// region, which is read sequentially field-by-field until the trailer
// sentinel is encountered.
func parseLegacyTrack(data []byte, h header) (*LegacyTrackReader, error) {
	if int(h.metadataOffset) > len(data) {
		return nil, errs.ErrTruncated
	}
	m, _, err := decodeLegacyMetadataTable(data[h.metadataOffset:])
	if err != nil {
		return nil, err
	}

	if int(h.dataOffset) > len(data) {
		return nil, errs.ErrTruncated
	}

	fields, err := decodeLegacySections(data[h.dataOffset:])
	if err != nil {
		return nil, err
	}

	return &LegacyTrackReader{metadata: m, fields: fields}, nil
}

func decodeLegacyMetadataTable(buf []byte) (Metadata, int, error) {
	if len(buf) < 1 {
		return Metadata{}, 0, errs.ErrTruncated
	}

	count := int(buf[0])
	offset := 1

	var m Metadata

	for i := 0; i < count; i++ {
		if offset+3 > len(buf) {
			return Metadata{}, 0, errs.ErrTruncated
		}
		tag := buf[offset]
		size := int(le.Uint16(buf[offset+1 : offset+3]))
		offset += 3

		if offset+size > len(buf) {
			return Metadata{}, 0, errs.ErrTruncated
		}
		payload := buf[offset : offset+size]
		offset += size

		switch format.MetadataTag(tag) {
		case format.MetadataTrackType:
			if len(payload) < 5 {
				return Metadata{}, 0, errs.ErrTruncated
			}
			id := uint64(le.Uint32(payload[1:5]))
			m.TrackType = TrackType{Kind: format.TrackKind(payload[0]), ID: id}
			m.HasTrackType = true
		case format.MetadataCreatedAt:
			if len(payload) < 8 {
				return Metadata{}, 0, errs.ErrTruncated
			}
			m.CreatedAt = le.Uint64(payload[:8])
			m.HasCreatedAt = true
		default:
			// Unknown tag: skipped via its declared size, dropped.
		}
	}

	if offset+2 > len(buf) {
		return Metadata{}, 0, errs.ErrTruncated
	}
	if err := crc.Verify(buf[:offset], buf[offset:offset+2], crc.Region16, "legacy metadata table"); err != nil {
		return Metadata{}, 0, err
	}

	return m, offset + 2, nil
}

// decodeLegacySections reads fields sequentially: field_type_tag,
// name_length, name, a 3-byte little-endian row count, a 4-byte
// little-endian column_data_size, the column bytes, and a trailing
// CRC-32/IEEE over those bytes. The trailer sentinel in place of a
// field_type_tag ends the sequence.
func decodeLegacySections(buf []byte) ([]LegacyField, error) {
	var fields []LegacyField
	offset := 0

	for {
		if offset+len(format.LegacyTrailer) <= len(buf) {
			var candidate [5]byte
			copy(candidate[:], buf[offset:offset+5])
			if candidate == format.LegacyTrailer {
				return fields, nil
			}
		}

		if offset >= len(buf) {
			return nil, errs.ErrTruncated
		}
		fieldType := format.LegacyFieldType(buf[offset])
		offset++

		if offset >= len(buf) {
			return nil, errs.ErrTruncated
		}
		nameLen := int(buf[offset])
		offset++

		if offset+nameLen > len(buf) {
			return nil, errs.ErrTruncated
		}
		name := string(buf[offset : offset+nameLen])
		offset += nameLen

		if offset+3 > len(buf) {
			return nil, errs.ErrTruncated
		}
		rows := int(buf[offset]) | int(buf[offset+1])<<8 | int(buf[offset+2])<<16
		offset += 3

		if offset+4 > len(buf) {
			return nil, errs.ErrTruncated
		}
		size := int(le.Uint32(buf[offset : offset+4]))
		offset += 4

		if offset+size+4 > len(buf) {
			return nil, errs.ErrTruncated
		}
		columnData := buf[offset : offset+size]
		offset += size

		expected := le.Uint32(buf[offset : offset+4])
		offset += 4
		if computed := crc.ChecksumCRC32IEEE(columnData); expected != computed {
			return nil, &errs.ChecksumMismatch{Region: "legacy section " + name, Expected: uint64(expected), Computed: uint64(computed)}
		}

		fields = append(fields, LegacyField{Name: name, FieldType: fieldType, Rows: rows, data: columnData})
	}
}

// Fields returns the legacy track's fields, in file order.
func (lr *LegacyTrackReader) Fields() []LegacyField { return lr.fields }

// Values decodes every row of the named legacy field, mapped to its
// nearest v1 type per format.LegacyFieldType.AsV1. v0 has no presence
// concept: every row is present.
func (lr *LegacyTrackReader) Values(name string) ([]any, error) {
	for _, f := range lr.fields {
		if f.Name != name {
			continue
		}

		dt, scale := f.FieldType.AsV1()
		values := make([]any, 0, f.Rows)

		switch dt {
		case format.TypeI64:
			var dec column.I64Decoder
			offset := 0
			for i := 0; i < f.Rows; i++ {
				v, n, err := dec.Next(f.data[offset:])
				if err != nil {
					return nil, err
				}
				values = append(values, v)
				offset += n
			}
		case format.TypeF64:
			dec := column.F64Decoder{Scale: scale}
			offset := 0
			for i := 0; i < f.Rows; i++ {
				v, n, err := dec.Next(f.data[offset:])
				if err != nil {
					return nil, err
				}
				values = append(values, v)
				offset += n
			}
		case format.TypeBool:
			offset := 0
			for i := 0; i < f.Rows; i++ {
				v, n, err := column.NextBool(f.data[offset:])
				if err != nil {
					return nil, err
				}
				values = append(values, v)
				offset += n
			}
		case format.TypeString:
			offset := 0
			for i := 0; i < f.Rows; i++ {
				v, n, err := column.NextString(f.data[offset:])
				if err != nil {
					return nil, err
				}
				values = append(values, v)
				offset += n
			}
		case format.TypeByteArray:
			offset := 0
			for i := 0; i < f.Rows; i++ {
				v, n, err := column.NextByteArray(f.data[offset:])
				if err != nil {
					return nil, err
				}
				values = append(values, v)
				offset += n
			}
		case format.TypeU64Array:
			offset := 0
			for i := 0; i < f.Rows; i++ {
				v, n, err := column.NextU64Array(f.data[offset:])
				if err != nil {
					return nil, err
				}
				values = append(values, v)
				offset += n
			}
		}

		return values, nil
	}

	return nil, &errs.SchemaViolation{Reason: "no such legacy field: " + name}
}
