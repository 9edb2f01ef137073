package tiff

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rtennill/scmconv/scmerr"
)

// Page-store specific tags (§3.3, §6.2).
const (
	TagImageWidth      = 256
	TagImageLength     = 257
	TagBitsPerSample   = 258
	TagCompression     = 259
	TagPhotometric     = 262
	TagStripOffsets    = 273
	TagOrientation     = 274
	TagSamplesPerPixel = 277
	TagRowsPerStrip    = 278
	TagStripByteCounts = 279
	TagPlanarConfig    = 284
	TagSampleFormat    = 339

	TagPageIndex   = 0xFFB0
	TagPageCatalog = 0xFFB1
	TagPageMinima  = 0xFFB2
	TagPageMaxima  = 0xFFB3
)

// CompressionZlib is the TIFF compression field value this container uses
// exclusively (§4.E).
const CompressionZlib = 8

// PlanarConfigContig is the only planar configuration this container uses.
const PlanarConfigContig = 1

// PhotometricBlackIsZero is used for all SCM pages; they are raw sample
// planes, not a photographic encoding.
const PhotometricBlackIsZero = 1

// OrientationTopLeft is the only orientation this container writes.
const OrientationTopLeft = 1

// PageIFD is one page's TIFF IFD: the fixed field set §4.E names, plus the
// custom SCM tags. Every page in a file shares the identical field set, in
// the identical order, so every written IFD has the identical byte size —
// this is what lets Finalize patch the catalog/minima/maxima fields of an
// already-written IFD in place without disturbing anything after it.
type PageIFD struct {
	ImageWidth, ImageLength   uint32
	BitsPerSample             []uint16
	Compression               uint16
	PhotometricInterpretation uint16
	StripOffsets              []uint64
	Orientation               uint16
	SamplesPerPixel           uint16
	RowsPerStrip              uint16
	StripByteCounts           []uint32
	PlanarConfiguration       uint16
	SampleFormat              []uint16

	PageIndex uint32

	// PageCatalogLen/Off are 0 until Finalize's MakeCatalog patches them
	// in place; the field is always reserved so patching never resizes
	// the IFD.
	PageCatalogLen uint64
	PageCatalogOff uint64

	// MinimaType/MaximaType are fixed at file-creation time (derived from
	// the container's bit depth) so only Len/Off need patching later.
	MinimaType uint16
	MinimaLen  uint64
	MinimaOff  uint64
	MaximaType uint16
	MaximaLen  uint64
	MaximaOff  uint64

	// Next is the absolute file offset of the next IFD in the chain, 0 if
	// this is the last page written so far.
	Next uint64
}

type fieldSpec struct {
	tag   uint16
	count uint64
	typ   uint16
	size  uint64 // total bytes of the typed value array
}

// fields returns, in ascending tag order, the fixed field set every IFD in
// a given file emits.
func (p *PageIFD) fields() []fieldSpec {
	fs := make([]fieldSpec, 0, 16)
	add := func(tag uint16, typ uint16, count uint64, elemSize uint64) {
		fs = append(fs, fieldSpec{tag: tag, typ: typ, count: count, size: count * elemSize})
	}
	add(TagImageWidth, TLong, 1, 4)
	add(TagImageLength, TLong, 1, 4)
	add(TagBitsPerSample, TShort, uint64(len(p.BitsPerSample)), 2)
	add(TagCompression, TShort, 1, 2)
	add(TagPhotometric, TShort, 1, 2)
	add(TagStripOffsets, TLong8, uint64(len(p.StripOffsets)), 8)
	add(TagOrientation, TShort, 1, 2)
	add(TagSamplesPerPixel, TShort, 1, 2)
	add(TagRowsPerStrip, TShort, 1, 2)
	add(TagStripByteCounts, TLong, uint64(len(p.StripByteCounts)), 4)
	add(TagPlanarConfig, TShort, 1, 2)
	add(TagSampleFormat, TShort, uint64(len(p.SampleFormat)), 2)
	add(TagPageIndex, TLong, 1, 4)
	add(TagPageCatalog, TLong8, p.PageCatalogLen, 8)
	add(TagPageMinima, p.MinimaType, p.MinimaLen, typeSize(p.MinimaType))
	add(TagPageMaxima, p.MaximaType, p.MaximaLen, typeSize(p.MaximaType))
	return fs
}

// TypeSize returns the byte width of one value of the given field type.
func TypeSize(t uint16) uint64 {
	return typeSize(t)
}

func typeSize(t uint16) uint64 {
	switch t {
	case TByte, TAscii:
		return 1
	case TShort:
		return 2
	case TLong:
		return 4
	case TLong8:
		return 8
	default:
		panic(fmt.Sprintf("unsupported tiff field type %d", t))
	}
}

// structure returns the field count and total byte size (8 field-count + N
// entries of 20 bytes + 8 next-pointer + overflow data) of this IFD once
// written. The three custom tags never add overflow bytes: their entries
// hold either an offset into a region MakeCatalog/MakeExtrema appends at
// EOF or, for a minima/maxima array of at most 8 bytes, the values inline.
func (p *PageIFD) structure() (count uint64, size uint64) {
	fs := p.fields()
	count = uint64(len(fs))
	size = 8 + 20*count + 8
	for _, f := range fs {
		if f.tag == TagPageCatalog || f.tag == TagPageMinima || f.tag == TagPageMaxima {
			continue
		}
		if f.size > 8 {
			size += f.size
		}
	}
	return count, size
}

// fieldEntryOffset returns the absolute file offset of the 20-byte entry
// for the given tag within the IFD written at ifdOffset, given the field
// order fixed by fields(). Used to patch a single field in place later.
func (p *PageIFD) fieldEntryOffset(ifdOffset uint64, tag uint16) (uint64, bool) {
	fs := p.fields()
	off := ifdOffset + 8
	for _, f := range fs {
		if f.tag == tag {
			return off, true
		}
		off += 20
	}
	return 0, false
}

// WriteIFD writes the IFD at the writer's current position, as field count,
// N 20-byte entries (inline value or offset into the trailing overflow
// area), the next-IFD pointer, and finally the overflow area itself.
func WriteIFD(w io.Writer, order binary.ByteOrder, p *PageIFD, offset uint64) error {
	fs := p.fields()
	count := uint64(len(fs))
	if err := binary.Write(w, order, count); err != nil {
		return scmerr.New(scmerr.KindIO, "write ifd count", err)
	}
	overflowOffset := offset + 8 + 20*count + 8
	overflow := make([]byte, 0, 64)

	writeEntry := func(f fieldSpec, inline func([]byte), external *[]byte) error {
		var buf [20]byte
		order.PutUint16(buf[0:2], f.tag)
		order.PutUint16(buf[2:4], f.typ)
		order.PutUint64(buf[4:12], f.count)
		switch {
		case f.tag == TagPageCatalog:
			order.PutUint64(buf[12:20], p.PageCatalogOff)
		case f.tag == TagPageMinima:
			order.PutUint64(buf[12:20], p.MinimaOff)
		case f.tag == TagPageMaxima:
			order.PutUint64(buf[12:20], p.MaximaOff)
		case f.size <= 8:
			inline(buf[12:20])
		default:
			order.PutUint64(buf[12:20], overflowOffset+uint64(len(overflow)))
			overflow = append(overflow, *external...)
		}
		_, err := w.Write(buf[:])
		return err
	}

	for _, f := range fs {
		var err error
		switch f.tag {
		case TagImageWidth:
			err = writeEntry(f, func(b []byte) { order.PutUint32(b, p.ImageWidth) }, nil)
		case TagImageLength:
			err = writeEntry(f, func(b []byte) { order.PutUint32(b, p.ImageLength) }, nil)
		case TagBitsPerSample:
			data := encodeShorts(order, p.BitsPerSample)
			err = writeEntry(f, func(b []byte) { copy(b, data) }, &data)
		case TagCompression:
			err = writeEntry(f, func(b []byte) { order.PutUint16(b, p.Compression) }, nil)
		case TagPhotometric:
			err = writeEntry(f, func(b []byte) { order.PutUint16(b, p.PhotometricInterpretation) }, nil)
		case TagStripOffsets:
			data := encodeLong8s(order, p.StripOffsets)
			err = writeEntry(f, func(b []byte) { copy(b, data) }, &data)
		case TagOrientation:
			err = writeEntry(f, func(b []byte) { order.PutUint16(b, p.Orientation) }, nil)
		case TagSamplesPerPixel:
			err = writeEntry(f, func(b []byte) { order.PutUint16(b, p.SamplesPerPixel) }, nil)
		case TagRowsPerStrip:
			err = writeEntry(f, func(b []byte) { order.PutUint16(b, p.RowsPerStrip) }, nil)
		case TagStripByteCounts:
			data := encodeLongs(order, p.StripByteCounts)
			err = writeEntry(f, func(b []byte) { copy(b, data) }, &data)
		case TagPlanarConfig:
			err = writeEntry(f, func(b []byte) { order.PutUint16(b, p.PlanarConfiguration) }, nil)
		case TagSampleFormat:
			data := encodeShorts(order, p.SampleFormat)
			err = writeEntry(f, func(b []byte) { copy(b, data) }, &data)
		case TagPageIndex:
			err = writeEntry(f, func(b []byte) { order.PutUint32(b, p.PageIndex) }, nil)
		case TagPageCatalog, TagPageMinima, TagPageMaxima:
			err = writeEntry(f, nil, nil)
		}
		if err != nil {
			return scmerr.New(scmerr.KindIO, "write ifd field", err)
		}
	}
	if err := binary.Write(w, order, p.Next); err != nil {
		return scmerr.New(scmerr.KindIO, "write ifd next", err)
	}
	if _, err := w.Write(overflow); err != nil {
		return scmerr.New(scmerr.KindIO, "write ifd overflow", err)
	}
	return nil
}

// PatchArrayField overwrites an already-written IFD's count+value pair for
// the given tag in place, without touching the rest of the file. Used by
// Finalize to link the catalog/minima/maxima regions after the fact.
func PatchArrayField(w io.WriterAt, order binary.ByteOrder, p *PageIFD, ifdOffset uint64, tag uint16, count, value uint64) error {
	entryOff, ok := p.fieldEntryOffset(ifdOffset, tag)
	if !ok {
		return scmerr.New(scmerr.KindFormat, "patch field", fmt.Errorf("tag %#x not present", tag))
	}
	var buf [16]byte
	order.PutUint64(buf[0:8], count)
	order.PutUint64(buf[8:16], value)
	_, err := w.WriteAt(buf[:], int64(entryOff+4))
	return scmerr.New(scmerr.KindIO, "patch field", err)
}

// NextFieldOffset returns the absolute offset of the 8-byte "next IFD"
// pointer of the IFD written at ifdOffset.
func (p *PageIFD) NextFieldOffset(ifdOffset uint64) uint64 {
	count, _ := p.structure()
	return ifdOffset + 8 + 20*count
}

func encodeShorts(order binary.ByteOrder, d []uint16) []byte {
	b := make([]byte, 2*len(d))
	for i, v := range d {
		order.PutUint16(b[i*2:], v)
	}
	return b
}

func encodeLongs(order binary.ByteOrder, d []uint32) []byte {
	b := make([]byte, 4*len(d))
	for i, v := range d {
		order.PutUint32(b[i*4:], v)
	}
	return b
}

func encodeLong8s(order binary.ByteOrder, d []uint64) []byte {
	b := make([]byte, 8*len(d))
	for i, v := range d {
		order.PutUint64(b[i*8:], v)
	}
	return b
}

// Field is a single decoded (tag, type, count, value-or-offset) entry.
type Field struct {
	Tag   uint16
	Typ   uint16
	Count uint64
	Value uint64 // inline value, or the offset when size > 8
}

// ReadIFD reads the IFD at offset from r, returning the decoded fields and
// the next-IFD pointer.
func ReadIFD(r io.ReaderAt, order binary.ByteOrder, offset uint64) (map[uint16]Field, uint64, error) {
	var cntBuf [8]byte
	if _, err := r.ReadAt(cntBuf[:], int64(offset)); err != nil {
		return nil, 0, scmerr.New(scmerr.KindIO, "read ifd count", err)
	}
	count := order.Uint64(cntBuf[:])
	fields := make(map[uint16]Field, count)
	entryOff := offset + 8
	for i := uint64(0); i < count; i++ {
		var buf [20]byte
		if _, err := r.ReadAt(buf[:], int64(entryOff)); err != nil {
			return nil, 0, scmerr.New(scmerr.KindIO, "read ifd entry", err)
		}
		f := Field{
			Tag:   order.Uint16(buf[0:2]),
			Typ:   order.Uint16(buf[2:4]),
			Count: order.Uint64(buf[4:12]),
		}
		f.Value = order.Uint64(buf[12:20])
		fields[f.Tag] = f
		entryOff += 20
	}
	var nextBuf [8]byte
	if _, err := r.ReadAt(nextBuf[:], int64(entryOff)); err != nil {
		return nil, 0, scmerr.New(scmerr.KindIO, "read ifd next", err)
	}
	return fields, order.Uint64(nextBuf[:]), nil
}

// ReadArray reads a LONG8/LONG/SHORT/BYTE array field's values given its
// raw descriptor; small arrays are inline in f.value, larger ones are read
// from the overflow offset f.value points to.
func ReadArray(r io.ReaderAt, order binary.ByteOrder, f Field) ([]uint64, error) {
	sz := typeSize(f.Typ)
	out := make([]uint64, f.Count)
	if f.Count*sz <= 8 {
		var buf [8]byte
		order.PutUint64(buf[:], f.Value)
		for i := uint64(0); i < f.Count; i++ {
			out[i] = decodeTyped(order, buf[i*sz:], f.Typ)
		}
		return out, nil
	}
	buf := make([]byte, f.Count*sz)
	if _, err := r.ReadAt(buf, int64(f.Value)); err != nil {
		return nil, scmerr.New(scmerr.KindIO, "read array field", err)
	}
	for i := uint64(0); i < f.Count; i++ {
		out[i] = decodeTyped(order, buf[i*sz:], f.Typ)
	}
	return out, nil
}

func decodeTyped(order binary.ByteOrder, b []byte, typ uint16) uint64 {
	switch typ {
	case TByte, TAscii:
		return uint64(b[0])
	case TShort:
		return uint64(order.Uint16(b))
	case TLong:
		return uint64(order.Uint32(b))
	case TLong8:
		return order.Uint64(b)
	default:
		panic(fmt.Sprintf("unsupported tiff field type %d", typ))
	}
}
