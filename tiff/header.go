// Package tiff implements the minimal BigTIFF reader/writer the SCM
// container needs: header, IFD framing, a fixed per-field tag table styled
// on the struct-tag IFD of github.com/airbusgeo/cogger's cog.go, and zlib
// strip codecs.
package tiff

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rtennill/scmconv/scmerr"
)

// Field type codes, the subset spec.md §4.E names as supported.
const (
	TByte  = 1
	TAscii = 2
	TShort = 3
	TLong  = 4
	TLong8 = 16
)

// headerSize is the byte size of a BigTIFF header.
const headerSize = 16

// Header is the 16-byte BigTIFF preamble: magic, version 43, byte size 8,
// a zero pad, and a 64-bit pointer to the first IFD.
type Header struct {
	Order        binary.ByteOrder
	FirstIFDOffs uint64
}

// WriteHeader writes a BigTIFF header to w at the current position.
func WriteHeader(w io.Writer, order binary.ByteOrder, firstIFD uint64) error {
	buf := make([]byte, headerSize)
	if order == binary.LittleEndian {
		copy(buf[0:2], "II")
	} else {
		copy(buf[0:2], "MM")
	}
	order.PutUint16(buf[2:4], 43)
	order.PutUint16(buf[4:6], 8)
	order.PutUint16(buf[6:8], 0)
	order.PutUint64(buf[8:16], firstIFD)
	_, err := w.Write(buf)
	return scmerr.New(scmerr.KindIO, "write header", err)
}

// ReadHeader reads and validates a BigTIFF header from r at the current
// position.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, scmerr.New(scmerr.KindIO, "read header", err)
	}
	var order binary.ByteOrder
	switch string(buf[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, scmerr.New(scmerr.KindFormat, "read header", fmt.Errorf("bad magic %q", buf[0:2]))
	}
	if v := order.Uint16(buf[2:4]); v != 43 {
		return nil, scmerr.New(scmerr.KindFormat, "read header", fmt.Errorf("not a BigTIFF (version %d)", v))
	}
	if v := order.Uint16(buf[4:6]); v != 8 {
		return nil, scmerr.New(scmerr.KindFormat, "read header", fmt.Errorf("unexpected byte size field %d", v))
	}
	return &Header{Order: order, FirstIFDOffs: order.Uint64(buf[8:16])}, nil
}

// PatchFirstIFD overwrites the header's first-IFD pointer in place.
func PatchFirstIFD(w io.WriterAt, order binary.ByteOrder, offset uint64) error {
	var buf [8]byte
	order.PutUint64(buf[:], offset)
	_, err := w.WriteAt(buf[:], 8)
	return scmerr.New(scmerr.KindIO, "patch header", err)
}
