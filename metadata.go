package rwtf

import (
	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/leb128"
)

// TrackType names the kind and identity of the track the file holds. It is
// optional: a track written with no metadata carries neither entry.
type TrackType struct {
	Kind format.TrackKind
	ID   uint64
}

// Metadata is the set of optional, named entries a track may carry. Zero
// values mean "absent"; use the Has* fields to distinguish absence from a
// zero-valued entry.
type Metadata struct {
	TrackType    TrackType
	HasTrackType bool
	CreatedAt    uint64 // seconds since epoch
	HasCreatedAt bool
}

func encodeMetadataTable(m Metadata) []byte {
	count := 0
	if m.HasTrackType {
		count++
	}
	if m.HasCreatedAt {
		count++
	}

	buf := make([]byte, 0, 16)
	buf = append(buf, byte(count))

	if m.HasTrackType {
		payload := make([]byte, 0, 9)
		payload = append(payload, byte(m.TrackType.Kind))
		payload = leb128.AppendUvarint(payload, m.TrackType.ID)
		buf = append(buf, byte(format.MetadataTrackType))
		buf = leb128.AppendUvarint(buf, uint64(len(payload)))
		buf = append(buf, payload...)
	}

	if m.HasCreatedAt {
		payload := leb128.AppendUvarint(nil, m.CreatedAt)
		buf = append(buf, byte(format.MetadataCreatedAt))
		buf = leb128.AppendUvarint(buf, uint64(len(payload)))
		buf = append(buf, payload...)
	}

	return crc.Seal(buf, crc.Region16, buf)
}

// decodeMetadataTable parses the metadata table starting at the beginning
// of buf, validates its trailing CRC-16, and returns the parsed Metadata
// plus the total byte length of the table (CRC included). Unknown tags are
// skipped using their declared entry_size and dropped from the result.
func decodeMetadataTable(buf []byte) (Metadata, int, error) {
	if len(buf) < 1 {
		return Metadata{}, 0, errs.ErrTruncated
	}

	count := int(buf[0])
	offset := 1

	var m Metadata

	for i := 0; i < count; i++ {
		if offset >= len(buf) {
			return Metadata{}, 0, errs.ErrTruncated
		}
		tag := buf[offset]
		offset++

		size, n, err := leb128.Uvarint(buf[offset:])
		if err != nil {
			return Metadata{}, 0, err
		}
		offset += n

		if offset+int(size) > len(buf) {
			return Metadata{}, 0, errs.ErrTruncated
		}
		payload := buf[offset : offset+int(size)]
		offset += int(size)

		switch format.MetadataTag(tag) {
		case format.MetadataTrackType:
			if len(payload) < 1 {
				return Metadata{}, 0, errs.ErrTruncated
			}
			id, _, err := leb128.Uvarint(payload[1:])
			if err != nil {
				return Metadata{}, 0, err
			}
			m.TrackType = TrackType{Kind: format.TrackKind(payload[0]), ID: id}
			m.HasTrackType = true
		case format.MetadataCreatedAt:
			seconds, _, err := leb128.Uvarint(payload)
			if err != nil {
				return Metadata{}, 0, err
			}
			m.CreatedAt = seconds
			m.HasCreatedAt = true
		default:
			// Unknown tag: already skipped via entry_size above, entry dropped.
		}
	}

	if offset+2 > len(buf) {
		return Metadata{}, 0, errs.ErrTruncated
	}
	if err := crc.Verify(buf[:offset], buf[offset:offset+2], crc.Region16, "metadata table"); err != nil {
		return Metadata{}, 0, err
	}

	return m, offset + 2, nil
}
