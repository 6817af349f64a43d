package section

import (
	"testing"

	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/leb128"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, fields []FieldDefinition) Schema {
	t.Helper()
	s, err := NewSchema(fields)
	require.NoError(t, err)

	return s
}

func TestScenarioBSingleI64Column(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{{Name: "v", DataType: format.TypeI64}})
	w, err := NewWriter(schema)
	require.NoError(t, err)

	for _, v := range []int64{1, 2, 4} {
		rb := w.OpenRow()
		require.NoError(t, rb.Set(v))
		require.NoError(t, rb.Close())
	}

	body, err := w.Bytes()
	require.NoError(t, err)
	require.Equal(t, w.DataSize(), len(body))

	// presence (1 byte, all 3 rows present) + CRC32, then deltas + CRC32.
	require.Equal(t, byte(0x07), body[0])
	require.Equal(t, []byte{0x01, 0x01, 0x02}, body[5:8])

	sizes := w.ColumnDataSizes()
	r, err := NewReader(body, schema, 3, sizes, format.CompressionNone)
	require.NoError(t, err)

	it, err := r.Iterator()
	require.NoError(t, err)

	var got []int64
	for {
		cells, err := it.OpenRow()
		require.NoError(t, err)
		if cells == nil {
			break
		}
		got = append(got, cells[0].Value.(int64))
	}
	require.Equal(t, []int64{1, 2, 4}, got)
}

func TestScenarioCSparseMultiColumn(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{
		{Name: "a", DataType: format.TypeI64},
		{Name: "b", DataType: format.TypeBool},
		{Name: "c", DataType: format.TypeString},
	})
	w, err := NewWriter(schema)
	require.NoError(t, err)

	rows := []struct {
		a    int64
		b    *bool
		c    string
	}{
		{a: 1, b: boolPtr(false), c: "Ride"},
		{a: 2, b: nil, c: "with"},
		{a: 4, b: boolPtr(true), c: "GPS"},
	}

	for _, row := range rows {
		rb := w.OpenRow()
		require.NoError(t, rb.Set(row.a))
		if row.b == nil {
			require.NoError(t, rb.Set(nil))
		} else {
			require.NoError(t, rb.Set(*row.b))
		}
		require.NoError(t, rb.Set(row.c))
		require.NoError(t, rb.Close())
	}

	body, err := w.Bytes()
	require.NoError(t, err)

	presenceBytes := body[:3]
	require.Equal(t, []byte{0b00000111, 0b00000101, 0b00000111}, presenceBytes)

	sizes := w.ColumnDataSizes()
	r, err := NewReader(body, schema, 3, sizes, format.CompressionNone)
	require.NoError(t, err)

	it, err := r.Iterator()
	require.NoError(t, err)

	cells0, err := it.OpenRow()
	require.NoError(t, err)
	require.Equal(t, int64(1), cells0[0].Value)
	require.Equal(t, false, cells0[1].Value)
	require.Equal(t, "Ride", cells0[2].Value)

	cells1, err := it.OpenRow()
	require.NoError(t, err)
	require.Equal(t, int64(2), cells1[0].Value)
	require.Nil(t, cells1[1].Value)
	require.Equal(t, "with", cells1[2].Value)

	cells2, err := it.OpenRow()
	require.NoError(t, err)
	require.Equal(t, int64(4), cells2[0].Value)
	require.Equal(t, true, cells2[1].Value)
	require.Equal(t, "GPS", cells2[2].Value)
}

func TestScenarioEProjection(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{
		{Name: "a", DataType: format.TypeI64},
		{Name: "b", DataType: format.TypeBool},
		{Name: "c", DataType: format.TypeString},
		{Name: "f", DataType: format.TypeF64, Scale: 7},
	})
	w, err := NewWriter(schema)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rb := w.OpenRow()
		require.NoError(t, rb.Set(int64(i)))
		require.NoError(t, rb.Set(i%2 == 0))
		require.NoError(t, rb.Set("row"))
		require.NoError(t, rb.Set(float64(i)))
		require.NoError(t, rb.Close())
	}

	body, err := w.Bytes()
	require.NoError(t, err)

	sizes := w.ColumnDataSizes()
	r, err := NewReader(body, schema, 3, sizes, format.CompressionNone)
	require.NoError(t, err)

	it, err := r.IteratorForSchema([]FieldDefinition{
		{Name: "b", DataType: format.TypeBool},
		{Name: "f", DataType: format.TypeF64, Scale: 7},
		{Name: "missing", DataType: format.TypeI64},
	})
	require.NoError(t, err)

	cells, err := it.OpenRow()
	require.NoError(t, err)
	require.Len(t, cells, 2)
	require.Equal(t, "b", cells[0].Field.Name)
	require.Equal(t, "f", cells[1].Field.Name)
}

func TestEncryptedSectionRoundTrip(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{{Name: "v", DataType: format.TypeI64}})
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	w, err := NewEncryptedWriter(schema, key)
	require.NoError(t, err)

	rb := w.OpenRow()
	require.NoError(t, rb.Set(int64(42)))
	require.NoError(t, rb.Close())

	sealed, err := w.Bytes()
	require.NoError(t, err)
	require.Equal(t, w.DataSize(), len(sealed))

	sizes := w.ColumnDataSizes()

	wrongKey := make([]byte, 32)
	_, err = NewEncryptedReader(sealed, wrongKey, schema, 1, sizes, format.CompressionNone)
	require.Error(t, err)

	r, err := NewEncryptedReader(sealed, key, schema, 1, sizes, format.CompressionNone)
	require.NoError(t, err)

	it, err := r.Iterator()
	require.NoError(t, err)
	cells, err := it.OpenRow()
	require.NoError(t, err)
	require.Equal(t, int64(42), cells[0].Value)
}

func TestSchemaRejectsDuplicateNames(t *testing.T) {
	_, err := NewSchema([]FieldDefinition{
		{Name: "a", DataType: format.TypeI64},
		{Name: "a", DataType: format.TypeBool},
	})
	require.Error(t, err)
}

func TestSchemaRejectsInvalidUTF8Name(t *testing.T) {
	_, err := NewSchema([]FieldDefinition{
		{Name: "a\xff\xfeb", DataType: format.TypeI64},
	})
	require.ErrorIs(t, err, errs.ErrInvalidUTF8)
}

func TestDecodeSchemaRejectsInvalidUTF8Name(t *testing.T) {
	name := "a\xff\xfeb"
	buf := []byte{schemaVersion, 1, byte(format.TypeI64), byte(len(name))}
	buf = append(buf, name...)
	buf = leb128.AppendUvarint(buf, 9)

	_, _, _, err := DecodeSchema(buf)
	require.ErrorIs(t, err, errs.ErrInvalidUTF8)
}

func TestRowBuilderRejectsTypeMismatch(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{{Name: "v", DataType: format.TypeI64}})
	w, err := NewWriter(schema)
	require.NoError(t, err)

	rb := w.OpenRow()
	err = rb.Set("not an int64")
	require.Error(t, err)
}

func TestRowBuilderRejectsUnclosedRow(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{
		{Name: "a", DataType: format.TypeI64},
		{Name: "b", DataType: format.TypeBool},
	})
	w, err := NewWriter(schema)
	require.NoError(t, err)

	rb := w.OpenRow()
	require.NoError(t, rb.Set(int64(1)))
	require.Error(t, rb.Close())
}

func TestSchemaEncodeDecodeRoundTrip(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{
		{Name: "a", DataType: format.TypeI64},
		{Name: "f", DataType: format.TypeF64, Scale: 3},
	})
	sizes := []int{9, 12}

	buf := EncodeSchema(nil, schema, sizes)
	gotSchema, gotSizes, n, err := DecodeSchema(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, schema, gotSchema)
	require.Equal(t, sizes, gotSizes)
}

func TestCompressedSectionRoundTrip(t *testing.T) {
	schema := mustSchema(t, []FieldDefinition{{Name: "v", DataType: format.TypeString}})
	w, err := NewWriter(schema, WithCompression(format.CompressionZstd))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		rb := w.OpenRow()
		require.NoError(t, rb.Set("repeated payload text for compression"))
		require.NoError(t, rb.Close())
	}

	body, err := w.Bytes()
	require.NoError(t, err)

	sizes := w.ColumnDataSizes()
	r, err := NewReader(body, schema, 50, sizes, format.CompressionZstd)
	require.NoError(t, err)

	it, err := r.Iterator()
	require.NoError(t, err)

	cells, err := it.OpenRow()
	require.NoError(t, err)
	require.Equal(t, "repeated payload text for compression", cells[0].Value)
}

func boolPtr(b bool) *bool { return &b }
