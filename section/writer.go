package section

import (
	"github.com/ridewithgps/rwtf/aead"
	"github.com/ridewithgps/rwtf/column"
	"github.com/ridewithgps/rwtf/compress"
	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/internal/options"
	"github.com/ridewithgps/rwtf/presence"
)

// Option configures a Writer at construction time.
type Option = options.Option[*Writer]

// WithCompression layers a whole-body compression codec on the assembled
// [presence||columns] body, applied before AEAD sealing for Encrypted
// sections.
func WithCompression(ct format.CompressionType) Option {
	return options.NoError[*Writer](func(w *Writer) {
		w.compression = ct
	})
}

// columnBuf accumulates one column's encoded bytes. Scalar columns keep
// their delta-encoder state for the life of the section; array columns
// reset a fresh encoder per value, so they need none here.
type columnBuf struct {
	field FieldDefinition
	buf   []byte
	i64   column.I64Encoder
	u64   column.U64Encoder
	f64   column.F64Encoder
}

// Writer buffers the rows of one Section until Bytes finalizes it.
// Rows are appended one at a time via OpenRow; a Writer is not safe for
// concurrent use.
type Writer struct {
	schema      Schema
	encoding    format.SectionEncoding
	key         []byte
	compression format.CompressionType
	presence    *presence.Writer
	columns     []columnBuf
	rows        int
}

// NewWriter creates a Standard Writer for schema.
func NewWriter(schema Schema, opts ...Option) (*Writer, error) {
	w := newWriter(schema, format.EncodingStandard, nil)
	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	return w, nil
}

// NewEncryptedWriter creates an Encrypted Writer for schema. key must be
// exactly 32 bytes (errs.ErrKeyMaterial otherwise); it seals the section
// body with XChaCha20-Poly1305 on Bytes.
func NewEncryptedWriter(schema Schema, key []byte, opts ...Option) (*Writer, error) {
	if len(key) != aead.KeySize {
		return nil, errs.ErrKeyMaterial
	}

	w := newWriter(schema, format.EncodingEncrypted, key)
	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	return w, nil
}

func newWriter(schema Schema, encoding format.SectionEncoding, key []byte) *Writer {
	columns := make([]columnBuf, len(schema.Fields))
	for i, f := range schema.Fields {
		columns[i] = columnBuf{field: f}
		if f.DataType == format.TypeF64 {
			columns[i].f64 = column.F64Encoder{Scale: f.Scale}
		}
	}

	return &Writer{
		schema:   schema,
		encoding: encoding,
		key:      key,
		presence: presence.NewWriter(len(schema.Fields)),
		columns:  columns,
	}
}

// Schema returns the section's schema.
func (w *Writer) Schema() Schema { return w.schema }

// Encoding returns whether this writer produces a Standard or Encrypted body.
func (w *Writer) Encoding() format.SectionEncoding { return w.encoding }

// Rows returns the number of rows opened so far.
func (w *Writer) Rows() int { return w.rows }

// OpenRow starts a new row and returns a RowBuilder to populate its
// columns. At most one row may be open at a time; the previous RowBuilder
// must have had every column set before calling OpenRow again.
func (w *Writer) OpenRow() *RowBuilder {
	w.presence.OpenRow()
	w.rows++

	return &RowBuilder{w: w}
}

// plainSize returns the byte length of the unsealed [presence||columns]
// body: presence bytes plus its CRC-32, then each column's bytes plus its
// own CRC-32.
func (w *Writer) plainSize() int {
	n := len(w.presence.Bytes()) + 4
	for _, c := range w.columns {
		n += len(c.buf) + 4
	}

	return n
}

// DataSize reports the exact byte length the section body occupies on
// disk, including AEAD overhead for Encrypted sections. Accurate only when
// no compression codec is configured; a compressed body's final size is
// data-dependent and is only known after Bytes runs.
func (w *Writer) DataSize() int {
	n := w.plainSize()
	if w.encoding == format.EncodingEncrypted {
		n += aead.Overhead
	}

	return n
}

// ColumnDataSizes returns, per field in schema order, the on-disk
// column_data_size (the column's encoded bytes plus its own CRC-32) that
// the data-table schema entry records.
func (w *Writer) ColumnDataSizes() []int {
	sizes := make([]int, len(w.columns))
	for i, c := range w.columns {
		sizes[i] = len(c.buf) + 4
	}

	return sizes
}

// Bytes finalizes the section: presence column, then each data column in
// schema order, each CRC-32 guarded; optionally compressed, then sealed
// under AEAD for Encrypted sections.
func (w *Writer) Bytes() ([]byte, error) {
	plain := make([]byte, 0, w.plainSize())
	presenceBytes := w.presence.Bytes()
	plain = append(plain, presenceBytes...)
	plain = crc.Seal(plain, crc.Region32, presenceBytes)

	for _, c := range w.columns {
		plain = append(plain, c.buf...)
		plain = crc.Seal(plain, crc.Region32, c.buf)
	}

	if w.compression != format.CompressionNone {
		codec, err := compress.CreateCodec(w.compression, "section body")
		if err != nil {
			return nil, err
		}
		plain, err = codec.Compress(plain)
		if err != nil {
			return nil, err
		}
	}

	if w.encoding == format.EncodingEncrypted {
		return aead.Seal(w.key, plain)
	}

	return plain, nil
}

// EncodingTag returns the on-disk encoding_tag byte for this section's
// data-table entry: the SectionEncoding in the low nibble, the
// configured CompressionType in the high nibble.
func (w *Writer) EncodingTag() byte {
	return format.EncodingTag(w.encoding, w.compression)
}

// RowBuilder populates one row's columns in schema order. Each column must
// receive exactly one Set call (with a nil value for an absent cell);
// Close then verifies every column was written.
type RowBuilder struct {
	w     *Writer
	field int
}

// Set writes the current column's value and advances to the next column.
// value must be nil (absent) or the Go type matching the column's
// DataType: int64, float64, uint64, bool, string, []bool, []uint64, or
// []byte. A type mismatch or writing past the schema's field count is a
// SchemaViolation.
func (rb *RowBuilder) Set(value any) error {
	if rb.field >= len(rb.w.schema.Fields) {
		return &errs.SchemaViolation{Reason: "row already has all columns set"}
	}

	col := &rb.w.columns[rb.field]
	field := rb.field
	rb.field++

	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case int64:
		if col.field.DataType != format.TypeI64 {
			return typeMismatch(col.field)
		}
		col.buf = col.i64.Append(col.buf, v)
	case float64:
		if col.field.DataType != format.TypeF64 {
			return typeMismatch(col.field)
		}
		col.buf = col.f64.Append(col.buf, v)
	case uint64:
		if col.field.DataType != format.TypeU64 {
			return typeMismatch(col.field)
		}
		col.buf = col.u64.Append(col.buf, v)
	case bool:
		if col.field.DataType != format.TypeBool {
			return typeMismatch(col.field)
		}
		col.buf = column.AppendBool(col.buf, v)
	case string:
		if col.field.DataType != format.TypeString {
			return typeMismatch(col.field)
		}
		col.buf = column.AppendString(col.buf, v)
	case []bool:
		if col.field.DataType != format.TypeBoolArray {
			return typeMismatch(col.field)
		}
		col.buf = column.AppendBoolArray(col.buf, v)
	case []uint64:
		if col.field.DataType != format.TypeU64Array {
			return typeMismatch(col.field)
		}
		col.buf = column.AppendU64Array(col.buf, v)
	case []byte:
		if col.field.DataType != format.TypeByteArray {
			return typeMismatch(col.field)
		}
		col.buf = column.AppendByteArray(col.buf, v)
	default:
		return &errs.SchemaViolation{Reason: "unsupported value type for field " + col.field.Name}
	}

	rb.w.presence.SetBit(field)

	return nil
}

// Close verifies every column of the row received a Set call.
func (rb *RowBuilder) Close() error {
	if rb.field != len(rb.w.schema.Fields) {
		return &errs.SchemaViolation{Reason: "row closed with unset columns"}
	}

	return nil
}

func typeMismatch(f FieldDefinition) error {
	return &errs.SchemaViolation{Reason: "value type does not match declared type for field " + f.Name}
}
