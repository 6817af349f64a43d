package crc

import (
	"github.com/ridewithgps/rwtf/endian"
	"github.com/ridewithgps/rwtf/errs"
)

var le = endian.GetLittleEndianEngine()

// Region identifies which of the two wire CRC algorithms guards a
// structural region.
type Region int

const (
	// Region16 regions are followed by a 2-byte little-endian CRC-16/USB.
	Region16 Region = iota
	// Region32 regions are followed by a 4-byte little-endian CRC-32/BZIP2.
	Region32
)

// Seal appends the trailing checksum for data, sized according to region,
// to dst and returns the extended slice. It streams the region's bytes
// through a running digest, then appends the little-endian finalized value.
func Seal(dst []byte, region Region, data []byte) []byte {
	switch region {
	case Region16:
		return le.AppendUint16(dst, ChecksumCRC16USB(data))
	default:
		return le.AppendUint32(dst, ChecksumCRC32BZIP2(data))
	}
}

// Verify reads the little-endian checksum at the start of trailer (2 bytes
// for Region16, 4 for Region32; errs.ErrTruncated if trailer is shorter)
// and compares it against the computed digest over data. regionName is
// used only to label a ChecksumMismatch error.
func Verify(data []byte, trailer []byte, region Region, regionName string) error {
	switch region {
	case Region16:
		if len(trailer) < 2 {
			return errs.ErrTruncated
		}
		expected := le.Uint16(trailer[:2])
		computed := ChecksumCRC16USB(data)
		if expected != computed {
			return &errs.ChecksumMismatch{Region: regionName, Expected: uint64(expected), Computed: uint64(computed)}
		}
	default:
		if len(trailer) < 4 {
			return errs.ErrTruncated
		}
		expected := le.Uint32(trailer[:4])
		computed := ChecksumCRC32BZIP2(data)
		if expected != computed {
			return &errs.ChecksumMismatch{Region: regionName, Expected: uint64(expected), Computed: uint64(computed)}
		}
	}

	return nil
}

// TrailerSize returns the number of trailing checksum bytes for region.
func TrailerSize(region Region) int {
	if region == Region16 {
		return 2
	}

	return 4
}
