package compress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ridewithgps/rwtf/format"
	"github.com/stretchr/testify/require"
)

func payload() []byte {
	return []byte(strings.Repeat("ride with gps track data ", 64))
}

func TestNoOpRoundTrip(t *testing.T) {
	c := NewNoOpCompressor()
	data := payload()

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, compressed))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, decompressed))
}

func TestZstdRoundTrip(t *testing.T) {
	c := NewZstdCompressor()
	data := payload()

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(data))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, decompressed))
}

func TestZstdEmptyInput(t *testing.T) {
	c := NewZstdCompressor()

	compressed, err := c.Compress(nil)
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Empty(t, decompressed)
}

func TestLZ4RoundTrip(t *testing.T) {
	c := NewLZ4Compressor()
	data := payload()

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(data))

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, decompressed))
}

func TestLZ4EmptyInput(t *testing.T) {
	c := NewLZ4Compressor()

	compressed, err := c.Compress(nil)
	require.NoError(t, err)
	require.Nil(t, compressed)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Nil(t, decompressed)
}

func TestCreateCodec(t *testing.T) {
	for _, tc := range []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionLZ4} {
		codec, err := CreateCodec(tc, "section body")
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := CreateCodec(format.CompressionType(0x0F), "section body")
	require.Error(t, err)
}

func TestGetCodec(t *testing.T) {
	codec, err := GetCodec(format.CompressionLZ4)
	require.NoError(t, err)
	require.IsType(t, LZ4Compressor{}, codec)

	_, err = GetCodec(format.CompressionType(0x0F))
	require.Error(t, err)
}
