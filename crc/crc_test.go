package crc

import (
	"testing"

	"github.com/ridewithgps/rwtf/errs"
	"github.com/stretchr/testify/require"
)

func TestCRC16USBKnownVector(t *testing.T) {
	// "123456789" is the standard CRC catalog check string; CRC-16/USB's
	// documented check value over it is 0xB4C8.
	require.Equal(t, uint16(0xB4C8), ChecksumCRC16USB([]byte("123456789")))
}

func TestCRC32BZIP2KnownVector(t *testing.T) {
	// CRC-32/BZIP2's documented check value over "123456789" is 0xFC891918.
	require.Equal(t, uint32(0xFC891918), ChecksumCRC32BZIP2([]byte("123456789")))
}

func TestSealVerifyRoundTrip16(t *testing.T) {
	data := []byte("the quick brown fox")
	buf := Seal(nil, Region16, data)
	require.Len(t, buf, TrailerSize(Region16))

	require.NoError(t, Verify(data, buf, Region16, "test"))
}

func TestSealVerifyRoundTrip32(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	buf := Seal(nil, Region32, data)
	require.Len(t, buf, TrailerSize(Region32))

	require.NoError(t, Verify(data, buf, Region32, "test"))
}

func TestVerifyMismatch(t *testing.T) {
	data := []byte("hello")
	buf := Seal(nil, Region32, data)
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xFF

	err := Verify(corrupted, buf, Region32, "column")
	var mismatch *errs.ChecksumMismatch
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "column", mismatch.Region)
}
