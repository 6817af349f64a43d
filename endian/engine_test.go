package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()

	require.Implements(t, (*EndianEngine)(nil), engine)
	require.Equal(t, binary.LittleEndian, engine)

	var testValue uint16 = 0x0102
	bytes := make([]byte, 2)
	engine.PutUint16(bytes, testValue)
	require.Equal(t, byte(0x02), bytes[0], "little endian should put LSB first")
	require.Equal(t, byte(0x01), bytes[1], "little endian should put MSB second")

	readValue := engine.Uint16(bytes)
	require.Equal(t, testValue, readValue)
}

func TestLittleEndianEngineAppend(t *testing.T) {
	engine := GetLittleEndianEngine()

	var buf []byte
	buf = engine.AppendUint16(buf, 0x0102)
	buf = engine.AppendUint32(buf, 0x01020304)
	buf = engine.AppendUint64(buf, 0x0102030405060708)

	require.Equal(t, uint16(0x0102), engine.Uint16(buf[0:2]))
	require.Equal(t, uint32(0x01020304), engine.Uint32(buf[2:6]))
	require.Equal(t, uint64(0x0102030405060708), engine.Uint64(buf[6:14]))
}
