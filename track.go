// Package rwtf reads and writes RideWithGPS Track Format files: a binary
// columnar container for GPS track data, one header, one metadata table,
// one data table, and a sequence of section bodies.
package rwtf

import (
	"github.com/ridewithgps/rwtf/errs"
	"github.com/ridewithgps/rwtf/format"
	"github.com/ridewithgps/rwtf/internal/options"
	"github.com/ridewithgps/rwtf/internal/pool"
	"github.com/ridewithgps/rwtf/section"
)

// Option configures a TrackWriter at construction time.
type Option = options.Option[*TrackWriter]

// WithMetadata attaches the track's optional metadata entries.
func WithMetadata(m Metadata) Option {
	return options.NoError[*TrackWriter](func(w *TrackWriter) {
		w.metadata = m
	})
}

// WithLegacyWrite exists only to document the refusal: mixed-version
// writers must never emit v0. NewTrackWriter always produces v1; applying
// this option turns that refusal into an explicit construction error
// instead of a silent no-op.
func WithLegacyWrite() Option {
	return options.New[*TrackWriter](func(w *TrackWriter) error {
		return &errs.SchemaViolation{Reason: "legacy v0 write is not supported; this implementation only emits v1"}
	})
}

// TrackWriter assembles a complete v1 track file from a metadata set and an
// ordered list of sections. Sections are added via AddSection fully
// populated; TrackWriter never rewrites their contents, only sequences and
// frames them.
type TrackWriter struct {
	metadata Metadata
	sections []*section.Writer
}

// NewTrackWriter creates an empty TrackWriter.
func NewTrackWriter(opts ...Option) (*TrackWriter, error) {
	w := &TrackWriter{}
	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	return w, nil
}

// AddSection appends a finalized section.Writer to the track, in the order
// it will appear in the data table and on disk. It returns the section's
// index.
func (w *TrackWriter) AddSection(sw *section.Writer) int {
	w.sections = append(w.sections, sw)
	return len(w.sections) - 1
}

// Bytes assembles the complete file: each section is serialized once (the
// two-pass offset computation this requires — data_size must be known
// before the header's absolute offsets can be written), then the header,
// metadata table, data table, and section bodies are emitted back to back.
func (w *TrackWriter) Bytes() ([]byte, error) {
	sectionBytes := make([][]byte, len(w.sections))
	descs := make([]sectionDescriptor, len(w.sections))
	bodyOffset := 0

	for i, sw := range w.sections {
		b, err := sw.Bytes()
		if err != nil {
			return nil, err
		}
		sectionBytes[i] = b

		enc, comp := format.SplitEncodingTag(sw.EncodingTag())
		descs[i] = sectionDescriptor{
			encoding:    enc,
			compression: comp,
			rows:        sw.Rows(),
			dataSize:    len(b),
			schema:      sw.Schema(),
			columnSizes: sw.ColumnDataSizes(),
			offset:      bodyOffset,
		}
		bodyOffset += len(b)
	}

	metadataBytes := encodeMetadataTable(w.metadata)
	dataBytes := encodeDataTable(descs)

	metadataOffset := format.HeaderSize
	dataOffset := metadataOffset + len(metadataBytes)
	if dataOffset > 0xFFFF || dataOffset+len(dataBytes) > 0xFFFF {
		return nil, errs.ErrOverflow
	}

	h := header{
		fileVersion:    format.FileVersionV1,
		creatorVersion: 0,
		metadataOffset: uint16(metadataOffset),
		dataOffset:     uint16(dataOffset),
	}

	buf := pool.GetTrackBuffer()
	defer pool.PutTrackBuffer(buf)

	buf.B = append(buf.B[:0], encodeHeader(h)...)
	buf.B = append(buf.B, metadataBytes...)
	buf.B = append(buf.B, dataBytes...)
	for _, b := range sectionBytes {
		buf.B = append(buf.B, b...)
	}

	out := make([]byte, len(buf.B))
	copy(out, buf.B)

	return out, nil
}

// TrackReader parses a complete track file (v1 or legacy v0) and lazily
// materializes its sections.
type TrackReader struct {
	data             []byte
	version          uint8
	metadata         Metadata
	descs            []sectionDescriptor
	dataRegionOffset int
	legacy           *LegacyTrackReader
}

// NewTrackReader parses the header, metadata table, and data table of data.
// Section bodies are not touched until Section is called.
func NewTrackReader(data []byte) (*TrackReader, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	if h.fileVersion == format.FileVersionV0 {
		return newLegacyTrackReader(data, h)
	}

	if int(h.metadataOffset) > len(data) {
		return nil, errs.ErrTruncated
	}
	m, _, err := decodeMetadataTable(data[h.metadataOffset:])
	if err != nil {
		return nil, err
	}

	if int(h.dataOffset) > len(data) {
		return nil, errs.ErrTruncated
	}
	descs, dtLen, err := decodeDataTable(data[h.dataOffset:])
	if err != nil {
		return nil, err
	}

	return &TrackReader{
		data:             data,
		version:          h.fileVersion,
		metadata:         m,
		descs:            descs,
		dataRegionOffset: int(h.dataOffset) + dtLen,
	}, nil
}

// Version returns the file's format.FileVersionV0 or format.FileVersionV1.
func (r *TrackReader) Version() uint8 { return r.version }

// Legacy returns the v0 field reader when Version is format.FileVersionV0,
// or nil otherwise.
func (r *TrackReader) Legacy() *LegacyTrackReader { return r.legacy }

// Metadata returns the track's parsed metadata entries.
func (r *TrackReader) Metadata() Metadata { return r.metadata }

// SectionCount returns the number of sections in the data table.
func (r *TrackReader) SectionCount() int { return len(r.descs) }

// SectionSchema returns the schema of section i without materializing it.
func (r *TrackReader) SectionSchema(i int) section.Schema { return r.descs[i].schema }

// SectionEncoding returns the encoding (Standard or Encrypted) of section i.
func (r *TrackReader) SectionEncoding(i int) format.SectionEncoding { return r.descs[i].encoding }

// SectionRows returns the declared row count of section i.
func (r *TrackReader) SectionRows(i int) int { return r.descs[i].rows }

// Section materializes section i as a section.Reader. key is required (and
// must be exactly 32 bytes) when the section is Encrypted; it is ignored
// otherwise.
func (r *TrackReader) Section(i int, key []byte) (*section.Reader, error) {
	if i < 0 || i >= len(r.descs) {
		return nil, &errs.SchemaViolation{Reason: "section index out of range"}
	}

	d := r.descs[i]
	start := r.dataRegionOffset + d.offset
	end := start + d.dataSize
	if end > len(r.data) {
		return nil, errs.ErrTruncated
	}
	body := r.data[start:end]

	if d.encoding == format.EncodingEncrypted {
		return section.NewEncryptedReader(body, key, d.schema, d.rows, d.columnSizes, d.compression)
	}

	return section.NewReader(body, d.schema, d.rows, d.columnSizes, d.compression)
}
