package rwtf

import (
	"testing"

	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/section"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, fields []section.FieldDefinition) section.Schema {
	t.Helper()
	s, err := section.NewSchema(fields)
	require.NoError(t, err)

	return s
}

// TestScenarioAMinimalEmptyTrack writes a track with no metadata and one
// Standard section, schema [{"v": I64}], zero rows. The numbered Invariant
// 3 formula (sum of column sizes incl. CRC + presence_bytes + 4 ==
// data_size) means this section's body is 8 bytes (a 4-byte presence CRC
// plus a 4-byte column CRC, even though zero rows were written), so the
// exact total byte count is not asserted here; only structural validity is.
func TestScenarioAMinimalEmptyTrack(t *testing.T) {
	schema := mustSchema(t, []section.FieldDefinition{{Name: "v", DataType: format.TypeI64}})
	sw, err := section.NewWriter(schema)
	require.NoError(t, err)

	tw, err := NewTrackWriter()
	require.NoError(t, err)
	tw.AddSection(sw)

	out, err := tw.Bytes()
	require.NoError(t, err)
	require.Equal(t, format.Magic[:], out[0:8])
	require.Equal(t, byte(format.FileVersionV1), out[8])

	r, err := NewTrackReader(out)
	require.NoError(t, err)
	require.Equal(t, uint8(format.FileVersionV1), r.Version())
	require.Equal(t, 1, r.SectionCount())
	require.Equal(t, 0, r.SectionRows(0))

	sr, err := r.Section(0, nil)
	require.NoError(t, err)
	require.Equal(t, 0, sr.Rows())
}

func TestTrackWriterReaderRoundTripWithMetadata(t *testing.T) {
	schema := mustSchema(t, []section.FieldDefinition{
		{Name: "a", DataType: format.TypeI64},
		{Name: "c", DataType: format.TypeString},
	})
	sw, err := section.NewWriter(schema)
	require.NoError(t, err)

	rb := sw.OpenRow()
	require.NoError(t, rb.Set(int64(42)))
	require.NoError(t, rb.Set("ride"))
	require.NoError(t, rb.Close())

	tw, err := NewTrackWriter(WithMetadata(Metadata{
		TrackType:    TrackType{Kind: format.KindRoute, ID: 7},
		HasTrackType: true,
		CreatedAt:    1700000000,
		HasCreatedAt: true,
	}))
	require.NoError(t, err)
	tw.AddSection(sw)

	out, err := tw.Bytes()
	require.NoError(t, err)

	r, err := NewTrackReader(out)
	require.NoError(t, err)
	require.True(t, r.Metadata().HasTrackType)
	require.Equal(t, format.KindRoute, r.Metadata().TrackType.Kind)
	require.Equal(t, uint64(7), r.Metadata().TrackType.ID)
	require.True(t, r.Metadata().HasCreatedAt)
	require.Equal(t, uint64(1700000000), r.Metadata().CreatedAt)

	sr, err := r.Section(0, nil)
	require.NoError(t, err)
	it, err := sr.Iterator()
	require.NoError(t, err)
	cells, err := it.OpenRow()
	require.NoError(t, err)
	require.Equal(t, int64(42), cells[0].Value)
	require.Equal(t, "ride", cells[1].Value)
}

func TestTrackWriterRejectsLegacyWrite(t *testing.T) {
	_, err := NewTrackWriter(WithLegacyWrite())
	require.Error(t, err)
}

// TestScenarioFEncryptedTrackRoundTrip wraps section-level encryption at
// the track level: wrong key fails to decrypt, correct key round-trips.
func TestScenarioFEncryptedTrackRoundTrip(t *testing.T) {
	schema := mustSchema(t, []section.FieldDefinition{{Name: "v", DataType: format.TypeI64}})
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}

	sw, err := section.NewEncryptedWriter(schema, key)
	require.NoError(t, err)
	rb := sw.OpenRow()
	require.NoError(t, rb.Set(int64(9)))
	require.NoError(t, rb.Close())

	tw, err := NewTrackWriter()
	require.NoError(t, err)
	tw.AddSection(sw)

	out, err := tw.Bytes()
	require.NoError(t, err)

	r, err := NewTrackReader(out)
	require.NoError(t, err)
	require.Equal(t, format.EncodingEncrypted, r.SectionEncoding(0))

	wrongKey := make([]byte, 32)
	_, err = r.Section(0, wrongKey)
	require.Error(t, err)

	sr, err := r.Section(0, key)
	require.NoError(t, err)
	it, err := sr.Iterator()
	require.NoError(t, err)
	cells, err := it.OpenRow()
	require.NoError(t, err)
	require.Equal(t, int64(9), cells[0].Value)
}

// TestUnknownMetadataTagSkipped covers invariant 7: a metadata entry with a
// tag this implementation does not know is skipped using its declared
// entry_size, and does not corrupt entries that follow it.
func TestUnknownMetadataTagSkipped(t *testing.T) {
	// Hand-build a metadata table: unknown tag 0x7F with 3 bytes of junk,
	// then a known CreatedAt entry, then the CRC-16 trailer.
	buf := []byte{2, 0x7F, 0x03, 0xAA, 0xBB, 0xCC}
	buf = append(buf, byte(format.MetadataCreatedAt), 0x01, 0x05)
	sealed := crc.Seal(buf, crc.Region16, buf)

	m, n, err := decodeMetadataTable(sealed)
	require.NoError(t, err)
	require.Equal(t, len(sealed), n)
	require.True(t, m.HasCreatedAt)
	require.Equal(t, uint64(5), m.CreatedAt)
	require.False(t, m.HasTrackType)
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	schema := mustSchema(t, []section.FieldDefinition{{Name: "v", DataType: format.TypeI64}})
	sw, err := section.NewWriter(schema)
	require.NoError(t, err)
	tw, err := NewTrackWriter()
	require.NoError(t, err)
	tw.AddSection(sw)
	out, err := tw.Bytes()
	require.NoError(t, err)

	out[0] ^= 0xFF
	sum := crc.ChecksumCRC16USB(out[:22])
	out[22], out[23] = byte(sum), byte(sum>>8)

	_, err = NewTrackReader(out)
	require.Error(t, err)
	var badTag *errs.BadTag
	require.ErrorAs(t, err, &badTag)
}

func TestHeaderRejectsCorruptCRC(t *testing.T) {
	schema := mustSchema(t, []section.FieldDefinition{{Name: "v", DataType: format.TypeI64}})
	sw, err := section.NewWriter(schema)
	require.NoError(t, err)
	tw, err := NewTrackWriter()
	require.NoError(t, err)
	tw.AddSection(sw)
	out, err := tw.Bytes()
	require.NoError(t, err)

	out[22] ^= 0xFF
	_, err = NewTrackReader(out)
	require.Error(t, err)
}
