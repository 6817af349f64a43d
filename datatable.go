package rwtf

import (
	"github.com/ridewithgps/rwtf/crc"
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/leb128"
	"github.com/ridewithgps/rwtf/section"
)

// sectionDescriptor is one data-table entry: everything a reader needs to
// locate and parse a section body without having read it yet.
type sectionDescriptor struct {
	encoding    format.SectionEncoding
	compression format.CompressionType
	rows        int
	dataSize    int
	schema      section.Schema
	columnSizes []int
	offset      int // byte offset of this section's body within the data region
}

func encodeDataTable(descs []sectionDescriptor) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(len(descs)))

	for _, d := range descs {
		buf = append(buf, format.EncodingTag(d.encoding, d.compression))
		buf = leb128.AppendUvarint(buf, uint64(d.rows))
		buf = leb128.AppendUvarint(buf, uint64(d.dataSize))
		buf = section.EncodeSchema(buf, d.schema, d.columnSizes)
	}

	return crc.Seal(buf, crc.Region16, buf)
}

// decodeDataTable parses the data table at the start of buf, validates its
// trailing CRC-16, and returns the ordered section descriptors (offsets are
// relative to the start of the data region, i.e. immediately following the
// data-table CRC) plus the table's total byte length including the CRC.
func decodeDataTable(buf []byte) ([]sectionDescriptor, int, error) {
	if len(buf) < 1 {
		return nil, 0, errs.ErrTruncated
	}

	sectionCount := int(buf[0])
	offset := 1

	descs := make([]sectionDescriptor, sectionCount)
	bodyOffset := 0

	for i := 0; i < sectionCount; i++ {
		if offset >= len(buf) {
			return nil, 0, errs.ErrTruncated
		}
		tag := buf[offset]
		offset++

		enc, comp := format.SplitEncodingTag(tag)
		if (enc != format.EncodingStandard && enc != format.EncodingEncrypted) ||
			(comp != format.CompressionNone && comp != format.CompressionZstd && comp != format.CompressionLZ4) {
			return nil, 0, &errs.BadTag{Region: "encoding_tag", Tag: tag}
		}

		rows, n, err := leb128.Uvarint(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		offset += n

		dataSize, n, err := leb128.Uvarint(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		offset += n

		schema, sizes, n, err := section.DecodeSchema(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		offset += n

		descs[i] = sectionDescriptor{
			encoding:    enc,
			compression: comp,
			rows:        int(rows),
			dataSize:    int(dataSize),
			schema:      schema,
			columnSizes: sizes,
			offset:      bodyOffset,
		}
		bodyOffset += int(dataSize)
	}

	if offset+2 > len(buf) {
		return nil, 0, errs.ErrTruncated
	}
	if err := crc.Verify(buf[:offset], buf[offset:offset+2], crc.Region16, "data table"); err != nil {
		return nil, 0, err
	}

	return descs, offset + 2, nil
}
