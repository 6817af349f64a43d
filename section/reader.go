package section

import (
	"github.com/ridewithgps/rwtf/aead"
	"github.com/ridewithgps/rwtf/column"
	"github.com/ridewithgps/rwtf/compress"
	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/presence"
)

// Reader parses one Section's body: the presence-column CRC is
// validated immediately at construction; individual column CRCs are
// validated lazily, only for the columns a caller actually selects via
// Iterator or IteratorForSchema, so an unneeded column never has to be sound.
type Reader struct {
	schema     Schema
	rows       int
	presence   *presence.Reader
	columnFull [][]byte // per field, the column's bytes including its trailing CRC-32
}

// NewReader parses a Standard section body, reversing compression if ct is
// not format.CompressionNone. columnSizes holds the on-disk
// column_data_size (including each column's own CRC-32) for every field of
// schema, in schema order.
func NewReader(body []byte, schema Schema, rows int, columnSizes []int, ct format.CompressionType) (*Reader, error) {
	plain, err := decompress(body, ct)
	if err != nil {
		return nil, err
	}

	return newReader(plain, schema, rows, columnSizes)
}

// NewEncryptedReader decrypts an Encrypted section body under key, reverses
// compression if ct is not format.CompressionNone, then parses it exactly
// as NewReader does. Returns errs.ErrDecryptFailed if authentication fails.
func NewEncryptedReader(sealed []byte, key []byte, schema Schema, rows int, columnSizes []int, ct format.CompressionType) (*Reader, error) {
	plain, err := aead.Open(key, sealed)
	if err != nil {
		return nil, err
	}

	plain, err = decompress(plain, ct)
	if err != nil {
		return nil, err
	}

	return newReader(plain, schema, rows, columnSizes)
}

func decompress(data []byte, ct format.CompressionType) ([]byte, error) {
	if ct == format.CompressionNone {
		return data, nil
	}

	codec, err := compress.CreateCodec(ct, "section body")
	if err != nil {
		return nil, err
	}

	return codec.Decompress(data)
}

func newReader(body []byte, schema Schema, rows int, columnSizes []int) (*Reader, error) {
	bytesPerRow := presence.BytesPerRow(len(schema.Fields))
	presenceLen := bytesPerRow * rows
	if len(body) < presenceLen+4 {
		return nil, errs.ErrTruncated
	}

	presenceBytes := body[:presenceLen]
	presenceTrailer := body[presenceLen : presenceLen+4]
	if err := crc.Verify(presenceBytes, presenceTrailer, crc.Region32, "presence column"); err != nil {
		return nil, err
	}

	offset := presenceLen + 4
	columnFull := make([][]byte, len(schema.Fields))
	for i, size := range columnSizes {
		if size < 4 || offset+size > len(body) {
			return nil, errs.ErrTruncated
		}
		columnFull[i] = body[offset : offset+size]
		offset += size
	}

	return &Reader{
		schema:     schema,
		rows:       rows,
		presence:   presence.NewReader(presenceBytes, len(schema.Fields)),
		columnFull: columnFull,
	}, nil
}

// Schema returns the section's full schema.
func (r *Reader) Schema() Schema { return r.schema }

// Rows returns the total row count the section declares.
func (r *Reader) Rows() int { return r.rows }

// Iterator yields every column of the section, in schema order.
func (r *Reader) Iterator() (*RowIterator, error) {
	indices := make([]int, len(r.schema.Fields))
	for i := range indices {
		indices[i] = i
	}

	return r.buildIterator(r.schema.Fields, indices)
}

// IteratorForSchema yields only the subset of requested fields whose
// {name, data_type} matches the section's schema exactly. A
// requested field that is absent, or present with a different type, is
// silently dropped and produces no column in the returned iterator.
func (r *Reader) IteratorForSchema(requested []FieldDefinition) (*RowIterator, error) {
	fields := make([]FieldDefinition, 0, len(requested))
	indices := make([]int, 0, len(requested))
	for _, want := range requested {
		idx := r.schema.IndexOf(want.Name)
		if idx < 0 || r.schema.Fields[idx].DataType != want.DataType {
			continue
		}
		fields = append(fields, r.schema.Fields[idx])
		indices = append(indices, idx)
	}

	return r.buildIterator(fields, indices)
}

func (r *Reader) buildIterator(fields []FieldDefinition, indices []int) (*RowIterator, error) {
	decoders := make([]columnDecoder, len(indices))
	for j, idx := range indices {
		full := r.columnFull[idx]
		data, trailer := full[:len(full)-4], full[len(full)-4:]
		name := r.schema.Fields[idx].Name
		if err := crc.Verify(data, trailer, crc.Region32, "column "+name); err != nil {
			return nil, err
		}
		decoders[j] = newColumnDecoder(r.schema.Fields[idx], data)
	}

	return &RowIterator{
		reader:    r,
		fields:    fields,
		indices:   indices,
		decoders:  decoders,
		remaining: r.rows,
	}, nil
}

// Cell is one (field, value) pair yielded by RowIterator.OpenRow. Value is
// nil when the cell is absent for this row.
type Cell struct {
	Field FieldDefinition
	Value any
}

// RowIterator walks a Section's rows top-to-bottom, single-pass, yielding
// the selected columns for each row.
type RowIterator struct {
	reader    *Reader
	fields    []FieldDefinition
	indices   []int
	decoders  []columnDecoder
	row       int
	remaining int
}

// RowsRemaining reports how many rows are left to open.
func (it *RowIterator) RowsRemaining() int { return it.remaining }

// OpenRow decodes and returns the selected cells of the next row, in the
// iterator's field order (schema order for Iterator, request order for
// IteratorForSchema), or (nil, nil) once the iterator is exhausted.
func (it *RowIterator) OpenRow() ([]Cell, error) {
	if it.remaining <= 0 {
		return nil, nil
	}

	cells := make([]Cell, len(it.indices))
	for j, idx := range it.indices {
		var value any
		if it.reader.presence.IsSet(it.row, idx) {
			v, err := it.decoders[j].next()
			if err != nil {
				return nil, err
			}
			value = v
		}
		cells[j] = Cell{Field: it.fields[j], Value: value}
	}

	it.row++
	it.remaining--

	return cells, nil
}

// columnDecoder holds one column's decode cursor and, for scalar types,
// its persistent delta-decoder state.
type columnDecoder struct {
	dt     format.DataType
	data   []byte
	offset int
	i64    column.I64Decoder
	u64    column.U64Decoder
	f64    column.F64Decoder
}

func newColumnDecoder(f FieldDefinition, data []byte) columnDecoder {
	cd := columnDecoder{dt: f.DataType, data: data}
	if f.DataType == format.TypeF64 {
		cd.f64 = column.F64Decoder{Scale: f.Scale}
	}

	return cd
}

func (cd *columnDecoder) next() (any, error) {
	var (
		value any
		n     int
		err   error
	)

	switch cd.dt {
	case format.TypeI64:
		var v int64
		v, n, err = cd.i64.Next(cd.data[cd.offset:])
		value = v
	case format.TypeF64:
		var v float64
		v, n, err = cd.f64.Next(cd.data[cd.offset:])
		value = v
	case format.TypeU64:
		var v uint64
		v, n, err = cd.u64.Next(cd.data[cd.offset:])
		value = v
	case format.TypeBool:
		var v bool
		v, n, err = column.NextBool(cd.data[cd.offset:])
		value = v
	case format.TypeString:
		var v string
		v, n, err = column.NextString(cd.data[cd.offset:])
		value = v
	case format.TypeBoolArray:
		var v []bool
		v, n, err = column.NextBoolArray(cd.data[cd.offset:])
		value = v
	case format.TypeU64Array:
		var v []uint64
		v, n, err = column.NextU64Array(cd.data[cd.offset:])
		value = v
	case format.TypeByteArray:
		var v []byte
		v, n, err = column.NextByteArray(cd.data[cd.offset:])
		value = v
	default:
		return nil, &errs.BadTag{Region: "column", Tag: byte(cd.dt)}
	}

	if err != nil {
		return nil, err
	}

	cd.offset += n

	return value, nil
}
