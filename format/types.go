// Package format defines the closed tag enumerants used on the RWTF wire:
// data types, track kinds, metadata entry tags, section encodings, and the
// optional section-level compression layered alongside them.
package format

// DataType identifies the wire representation of a column.
type DataType uint8

const (
	TypeI64       DataType = 0x00
	TypeF64       DataType = 0x01
	TypeU64       DataType = 0x02
	TypeBool      DataType = 0x10
	TypeString    DataType = 0x20
	TypeBoolArray DataType = 0x21
	TypeU64Array  DataType = 0x22
	TypeByteArray DataType = 0x23
)

func (t DataType) String() string {
	switch t {
	case TypeI64:
		return "I64"
	case TypeF64:
		return "F64"
	case TypeU64:
		return "U64"
	case TypeBool:
		return "Bool"
	case TypeString:
		return "String"
	case TypeBoolArray:
		return "BoolArray"
	case TypeU64Array:
		return "U64Array"
	case TypeByteArray:
		return "ByteArray"
	default:
		return "Unknown"
	}
}

// HasScale reports whether the data type carries a 1-byte scale follow-up
// after its tag byte. Only F64 does.
func (t DataType) HasScale() bool {
	return t == TypeF64
}

// Valid reports whether t is one of the defined data type tags. Any other
// tag byte in a schema entry is a fatal parse error.
func (t DataType) Valid() bool {
	switch t {
	case TypeI64, TypeF64, TypeU64, TypeBool, TypeString, TypeBoolArray, TypeU64Array, TypeByteArray:
		return true
	default:
		return false
	}
}

// TrackKind identifies the kind of track a TrackType metadata entry names.
type TrackKind uint8

const (
	KindTrip    TrackKind = 0x00
	KindRoute   TrackKind = 0x01
	KindSegment TrackKind = 0x02
)

func (k TrackKind) String() string {
	switch k {
	case KindTrip:
		return "Trip"
	case KindRoute:
		return "Route"
	case KindSegment:
		return "Segment"
	default:
		return "Unknown"
	}
}

// MetadataTag identifies a metadata table entry's variant.
type MetadataTag uint8

const (
	MetadataTrackType MetadataTag = 0x00
	MetadataCreatedAt MetadataTag = 0x01
)

func (t MetadataTag) String() string {
	switch t {
	case MetadataTrackType:
		return "TrackType"
	case MetadataCreatedAt:
		return "CreatedAt"
	default:
		return "Unknown"
	}
}

// SectionEncoding identifies whether a section body is stored as plaintext
// (Standard) or sealed under an AEAD (Encrypted).
type SectionEncoding uint8

const (
	EncodingStandard  SectionEncoding = 0x00
	EncodingEncrypted SectionEncoding = 0x01
)

func (e SectionEncoding) String() string {
	switch e {
	case EncodingStandard:
		return "Standard"
	case EncodingEncrypted:
		return "Encrypted"
	default:
		return "Unknown"
	}
}

// CompressionType identifies the optional whole-section compression transform
// applied to a section body before emission (or before sealing, for
// Encrypted sections). This is additive wire surface layered on top of the
// encoding_tag's low nibble: a reader that only understands the plain
// Standard (0x00) / Encrypted (0x01) values still parses the section kind
// correctly by masking to the low nibble.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x0
	CompressionZstd CompressionType = 0x1
	CompressionLZ4  CompressionType = 0x2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// LegacyFieldType identifies a v0 section's single column type. v0 has no
// multi-column schema; each legacy section carries exactly one field.
type LegacyFieldType uint8

const (
	LegacyNumbers    LegacyFieldType = 0x00
	LegacyLongFloat  LegacyFieldType = 0x01
	LegacyShortFloat LegacyFieldType = 0x02
	LegacyBase64     LegacyFieldType = 0x03
	LegacyString     LegacyFieldType = 0x04
	LegacyBool       LegacyFieldType = 0x05
	LegacyIDs        LegacyFieldType = 0x06
)

// LongFloatScale and ShortFloatScale are the fixed decimal scales v0 used
// in place of v1's explicit per-column scale byte.
const (
	LongFloatScale  = 7
	ShortFloatScale = 3
)

// AsV1 maps a legacy field type to its nearest v1 DataType and, for the
// float variants, the fixed scale v0 used.
func (t LegacyFieldType) AsV1() (DataType, uint8) {
	switch t {
	case LegacyNumbers:
		return TypeI64, 0
	case LegacyLongFloat:
		return TypeF64, LongFloatScale
	case LegacyShortFloat:
		return TypeF64, ShortFloatScale
	case LegacyBase64:
		return TypeByteArray, 0
	case LegacyString:
		return TypeString, 0
	case LegacyBool:
		return TypeBool, 0
	case LegacyIDs:
		return TypeU64Array, 0
	default:
		return TypeI64, 0
	}
}

func (t LegacyFieldType) String() string {
	switch t {
	case LegacyNumbers:
		return "Numbers"
	case LegacyLongFloat:
		return "LongFloat"
	case LegacyShortFloat:
		return "ShortFloat"
	case LegacyBase64:
		return "Base64"
	case LegacyString:
		return "String"
	case LegacyBool:
		return "Bool"
	case LegacyIDs:
		return "IDs"
	default:
		return "Unknown"
	}
}

// Magic is the 8-byte file signature every RWTF track begins with.
var Magic = [8]byte{0x89, 0x52, 0x57, 0x54, 0x46, 0x0A, 0x1A, 0x0A}

// File version bytes. FileVersionV1 is the only version this package
// writes; FileVersionV0 identifies the legacy layout it still reads.
const (
	FileVersionV0 = 0x00
	FileVersionV1 = 0x01
)

// HeaderSize is the fixed byte length of a v1 file header, CRC included.
const HeaderSize = 24

// LegacyTrailer marks end-of-sections in a v0 file.
var LegacyTrailer = [5]byte{0xFF, 0x46, 0x54, 0x57, 0x52}

// EncodingTag packs a SectionEncoding into the low nibble and a
// CompressionType into the high nibble of the single on-disk encoding_tag
// byte that precedes each data-table section entry.
func EncodingTag(enc SectionEncoding, comp CompressionType) byte {
	return byte(enc&0x0F) | byte(comp&0x0F)<<4
}

// SplitEncodingTag reverses EncodingTag.
func SplitEncodingTag(tag byte) (SectionEncoding, CompressionType) {
	return SectionEncoding(tag & 0x0F), CompressionType((tag >> 4) & 0x0F)
}
