package rwtf

import (
	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/endian"
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
)

var le = endian.GetLittleEndianEngine()

// header is the fixed 24-byte region every track begins with: magic, file
// and creator versions, the absolute offsets of the metadata and data
// tables, and a CRC-16 over everything preceding it.
type header struct {
	fileVersion    uint8
	creatorVersion uint8
	metadataOffset uint16
	dataOffset     uint16
}

func encodeHeader(h header) []byte {
	buf := make([]byte, 0, format.HeaderSize)
	buf = append(buf, format.Magic[:]...)
	buf = append(buf, h.fileVersion, 0, 0, 0)
	buf = append(buf, h.creatorVersion, 0, 0, 0)
	buf = le.AppendUint16(buf, h.metadataOffset)
	buf = le.AppendUint16(buf, h.dataOffset)
	buf = append(buf, 0, 0)

	return crc.Seal(buf, crc.Region16, buf)
}

// decodeHeader parses the fixed header at the start of buf and validates
// its CRC-16. It accepts both file_version bytes; callers branch on
// h.fileVersion to pick the v1 or legacy v0 table layout.
func decodeHeader(buf []byte) (header, error) {
	if len(buf) < format.HeaderSize {
		return header{}, errs.ErrTruncated
	}

	body, trailer := buf[:format.HeaderSize-2], buf[format.HeaderSize-2:format.HeaderSize]
	if err := crc.Verify(body, trailer, crc.Region16, "header"); err != nil {
		return header{}, err
	}

	var magic [8]byte
	copy(magic[:], buf[0:8])
	if magic != format.Magic {
		return header{}, &errs.BadTag{Region: "header magic", Tag: buf[0]}
	}

	fileVersion := buf[8]
	if fileVersion != format.FileVersionV0 && fileVersion != format.FileVersionV1 {
		return header{}, &errs.BadTag{Region: "file_version", Tag: fileVersion}
	}

	return header{
		fileVersion:    fileVersion,
		creatorVersion: buf[12],
		metadataOffset: le.Uint16(buf[16:18]),
		dataOffset:     le.Uint16(buf[18:20]),
	}, nil
}
