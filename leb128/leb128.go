// Package leb128 implements unsigned and signed LEB128 varints exactly as
// used by DWARF, plus the delta-LEB128 integer stream helpers built
// on top of them.
//
// Unsigned LEB128 encodes an integer as a sequence of 7-bit groups, least
// significant group first, with the high bit of each byte set except the
// last. Signed LEB128 uses the same grouping but terminates once the
// remaining bits are the sign extension of bit 6 of the last emitted byte,
// so negative numbers compress as well as positive ones.
package leb128

import "github.com/ridewithgps/rwtf/errs"

// maxBytes bounds how many continuation bytes a 64-bit value can ever need:
// ceil(64/7) = 10.
const maxBytes = 10

// AppendUvarint appends the unsigned LEB128 encoding of v to dst and returns
// the extended slice. The encoder always emits the minimum number of bytes.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}

// AppendVarint appends the signed (two's-complement, DWARF-style) LEB128
// encoding of v to dst and returns the extended slice.
func AppendVarint(dst []byte, v int64) []byte {
	for {
		b := byte(v) & 0x7F
		v >>= 7
		signBitSet := b&0x40 != 0
		done := (v == 0 && !signBitSet) || (v == -1 && signBitSet)
		if !done {
			b |= 0x80
		}
		dst = append(dst, b)
		if done {
			return dst
		}
	}
}

// Uvarint decodes an unsigned LEB128 varint from the start of buf.
// It returns the decoded value and the number of bytes consumed, or
// (0, 0, err) if buf does not contain a complete, valid encoding: truncated
// input yields errs.ErrTruncated, and a sequence overlong enough to
// overflow 64 bits yields errs.ErrOverflow.
func Uvarint(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint

	for i := 0; i < len(buf) && i < maxBytes; i++ {
		b := buf[i]
		if shift == 63 && b > 1 {
			// Only bit 0 of the 10th byte can contribute without overflowing.
			return 0, 0, errs.ErrOverflow
		}

		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}

	if len(buf) < maxBytes {
		return 0, 0, errs.ErrTruncated
	}

	return 0, 0, errs.ErrOverflow
}

// Varint decodes a signed (two's-complement, DWARF-style) LEB128 varint
// from the start of buf, mirroring Uvarint's contract.
func Varint(buf []byte) (int64, int, error) {
	var result int64
	var shift uint
	var b byte

	i := 0
	for ; i < len(buf) && i < maxBytes; i++ {
		b = buf[i]
		if shift == 63 && b != 0 && b != 0x7F {
			return 0, 0, errs.ErrOverflow
		}

		result |= int64(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}

	if i == len(buf) || i == maxBytes {
		if len(buf) < maxBytes {
			return 0, 0, errs.ErrTruncated
		}

		return 0, 0, errs.ErrOverflow
	}

	// Sign-extend if the sign bit (bit 6) of the last byte is set and there
	// are unfilled high bits remaining.
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}

	return result, i + 1, nil
}

// DeltaEncoder serializes a signed integer stream as LEB128 of successive
// differences, with an implicit zero predecessor. U64 columns reuse
// this by reinterpreting the u64 value as i64 before delta coding,
// relying on two's-complement wraparound for both directions.
type DeltaEncoder struct {
	prev int64
}

// Append encodes v as a delta from the previously appended value (or from
// zero, for the first call) and appends the LEB128 bytes to dst.
func (e *DeltaEncoder) Append(dst []byte, v int64) []byte {
	delta := v - e.prev // wrapping subtraction via int64 overflow semantics
	e.prev = v

	return AppendVarint(dst, delta)
}

// DeltaDecoder mirrors DeltaEncoder on the read side.
type DeltaDecoder struct {
	prev int64
}

// Next decodes one delta-LEB128 value from the start of buf, reconstructs
// the absolute value by adding it to the running previous value, and
// returns the absolute value and the number of bytes consumed.
func (d *DeltaDecoder) Next(buf []byte) (int64, int, error) {
	delta, n, err := Varint(buf)
	if err != nil {
		return 0, 0, err
	}

	d.prev += delta // wrapping add

	return d.prev, n, nil
}
