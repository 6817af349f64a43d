// Package column implements the per-DataType value codecs: encoders and
// decoders for each column type. Each codec only ever sees present
// values — absence is resolved entirely by the presence bitmap, so
// an absent cell contributes zero bytes to its column.
package column

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/leb128"
)

// I64Encoder appends signed-LEB128 deltas for a stream of present I64 values.
type I64Encoder struct {
	delta leb128.DeltaEncoder
}

func (e *I64Encoder) Append(dst []byte, v int64) []byte {
	return e.delta.Append(dst, v)
}

// I64Decoder mirrors I64Encoder.
type I64Decoder struct {
	delta leb128.DeltaDecoder
}

func (d *I64Decoder) Next(buf []byte) (int64, int, error) {
	return d.delta.Next(buf)
}

// U64Encoder delta-codes U64 values by reinterpreting them as I64: deltas
// remain small for contiguous u64 streams, and two's-complement
// wraparound makes both directions exact.
type U64Encoder struct {
	delta leb128.DeltaEncoder
}

func (e *U64Encoder) Append(dst []byte, v uint64) []byte {
	return e.delta.Append(dst, int64(v)) //nolint:gosec
}

// U64Decoder mirrors U64Encoder.
type U64Decoder struct {
	delta leb128.DeltaDecoder
}

func (d *U64Decoder) Next(buf []byte) (uint64, int, error) {
	v, n, err := d.delta.Next(buf)
	return uint64(v), n, err //nolint:gosec
}

// F64Encoder delta-codes F64 values by scaling to a fixed-point integer
// (wire = int64(value * 10^scale), truncated toward zero per Go's
// native int64(float64) cast semantics) before delta-LEB128 encoding.
// No rounding is applied; rounding is left to the caller.
type F64Encoder struct {
	Scale uint8
	delta leb128.DeltaEncoder
}

func (e *F64Encoder) Append(dst []byte, v float64) []byte {
	scaled := int64(v * math.Pow10(int(e.Scale)))
	return e.delta.Append(dst, scaled)
}

// F64Decoder mirrors F64Encoder.
type F64Decoder struct {
	Scale uint8
	delta leb128.DeltaDecoder
}

func (d *F64Decoder) Next(buf []byte) (float64, int, error) {
	scaled, n, err := d.delta.Next(buf)
	if err != nil {
		return 0, 0, err
	}

	return float64(scaled) / math.Pow10(int(d.Scale)), n, nil
}

// AppendBool appends the single-byte (0 or 1) encoding of a Bool value.
func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}

	return append(dst, 0)
}

// NextBool decodes a single Bool byte.
func NextBool(buf []byte) (bool, int, error) {
	if len(buf) < 1 {
		return false, 0, errs.ErrTruncated
	}

	return buf[0] != 0, 1, nil
}

// AppendString appends the ULEB128-length-prefixed UTF-8 encoding of a
// String value.
func AppendString(dst []byte, v string) []byte {
	dst = leb128.AppendUvarint(dst, uint64(len(v)))
	return append(dst, v...)
}

// NextString decodes a length-prefixed String value. Invalid UTF-8 is
// replaced with the Unicode replacement character rather than failing the
// whole column.
func NextString(buf []byte) (string, int, error) {
	length, n, err := leb128.Uvarint(buf)
	if err != nil {
		return "", 0, err
	}

	end := n + int(length)
	if end < n || end > len(buf) {
		return "", 0, errs.ErrTruncated
	}

	raw := buf[n:end]
	s := string(raw)
	if !utf8.Valid(raw) {
		s = strings.ToValidUTF8(s, "�")
	}

	return s, end, nil
}

// AppendBoolArray appends the ULEB128-length-prefixed array of single-byte
// bools making up a BoolArray value.
func AppendBoolArray(dst []byte, v []bool) []byte {
	dst = leb128.AppendUvarint(dst, uint64(len(v)))
	for _, b := range v {
		dst = AppendBool(dst, b)
	}

	return dst
}

// NextBoolArray decodes a length-prefixed BoolArray value.
func NextBoolArray(buf []byte) ([]bool, int, error) {
	length, n, err := leb128.Uvarint(buf)
	if err != nil {
		return nil, 0, err
	}

	out := make([]bool, length)
	offset := n
	for i := range out {
		b, bn, err := NextBool(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		out[i] = b
		offset += bn
	}

	return out, offset, nil
}

// AppendU64Array appends the ULEB128-length-prefixed, per-array delta-LEB128
// encoded sequence making up a U64Array value. Each array restarts its delta
// chain from zero.
func AppendU64Array(dst []byte, v []uint64) []byte {
	dst = leb128.AppendUvarint(dst, uint64(len(v)))
	var enc U64Encoder
	for _, x := range v {
		dst = enc.Append(dst, x)
	}

	return dst
}

// NextU64Array decodes a length-prefixed U64Array value.
func NextU64Array(buf []byte) ([]uint64, int, error) {
	length, n, err := leb128.Uvarint(buf)
	if err != nil {
		return nil, 0, err
	}

	out := make([]uint64, length)
	offset := n
	var dec U64Decoder
	for i := range out {
		x, xn, err := dec.Next(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		out[i] = x
		offset += xn
	}

	return out, offset, nil
}

// AppendByteArray appends the ULEB128-length-prefixed raw bytes making up a
// ByteArray value.
func AppendByteArray(dst []byte, v []byte) []byte {
	dst = leb128.AppendUvarint(dst, uint64(len(v)))
	return append(dst, v...)
}

// NextByteArray decodes a length-prefixed ByteArray value.
func NextByteArray(buf []byte) ([]byte, int, error) {
	length, n, err := leb128.Uvarint(buf)
	if err != nil {
		return nil, 0, err
	}

	end := n + int(length)
	if end < n || end > len(buf) {
		return nil, 0, errs.ErrTruncated
	}

	out := make([]byte, length)
	copy(out, buf[n:end])

	return out, end, nil
}
