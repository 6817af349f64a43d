package rwtf

import (
	"testing"

	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/format"
	"github.com/stretchr/testify/require"
)

// buildLegacyTrack hand-assembles a v0 file byte-for-byte per this
// package's documented reconstruction of the legacy layout: a common
// 24-byte header, a metadata table with 2-byte little-endian entry sizes,
// and a sequence of single-field sections terminated by the trailer
// sentinel, each guarded by a whole-column CRC-32/IEEE.
func buildLegacyTrack(t *testing.T) []byte {
	t.Helper()

	// One Numbers (I64) field named "v", three values: 1, 2, 4 (deltas
	// 1, 1, 2), dense (no presence concept in v0).
	columnData := []byte{0x01, 0x01, 0x02}

	var section []byte
	section = append(section, byte(format.LegacyNumbers))
	section = append(section, 1, 'v')
	section = append(section, 3, 0, 0) // 3-byte LE row count = 3
	section = le.AppendUint32(section, uint32(len(columnData)))
	section = append(section, columnData...)
	section = le.AppendUint32(section, crc.ChecksumCRC32IEEE(columnData))
	section = append(section, format.LegacyTrailer[:]...)

	metadata := []byte{0} // entry_count = 0
	metadata = crc.Seal(metadata, crc.Region16, metadata)

	metadataOffset := format.HeaderSize
	dataOffset := metadataOffset + len(metadata)

	h := []byte{}
	h = append(h, format.Magic[:]...)
	h = append(h, format.FileVersionV0, 0, 0, 0)
	h = append(h, 0, 0, 0, 0)
	h = le.AppendUint16(h, uint16(metadataOffset))
	h = le.AppendUint16(h, uint16(dataOffset))
	h = append(h, 0, 0)
	h = crc.Seal(h, crc.Region16, h)

	out := append([]byte{}, h...)
	out = append(out, metadata...)
	out = append(out, section...)

	return out
}

func TestLegacyTrackReaderReadsV0Field(t *testing.T) {
	data := buildLegacyTrack(t)

	r, err := NewTrackReader(data)
	require.NoError(t, err)
	require.Equal(t, uint8(format.FileVersionV0), r.Version())

	lr := r.Legacy()
	require.NotNil(t, lr)
	require.Len(t, lr.Fields(), 1)
	require.Equal(t, "v", lr.Fields()[0].Name)
	require.Equal(t, format.LegacyNumbers, lr.Fields()[0].FieldType)

	values, err := lr.Values("v")
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), int64(2), int64(4)}, values)
}

func TestLegacyTrackReaderRejectsCorruptColumnCRC(t *testing.T) {
	data := buildLegacyTrack(t)
	// Flip a byte inside the column data (located after the 24-byte
	// header, the 3-byte metadata table, the 1-byte field type tag, the
	// 2-byte name, the 3-byte row count, and the 4-byte size field).
	columnStart := format.HeaderSize + 3 + 1 + 2 + 3 + 4
	data[columnStart] ^= 0xFF

	_, err := NewTrackReader(data)
	require.Error(t, err)
}
