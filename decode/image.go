// Package decode normalizes every supported input raster format (JPEG,
// PNG, TIFF, PDS) into the single decode.Image interface the spherical
// resampling pipeline consumes (§3.2 of SPEC_FULL.md). These are the
// system's excluded collaborators — thin glue specified only through the
// interface they produce, exactly as spec.md §1 describes input decoders.
package decode

import (
	"encoding/binary"
	"io"

	"github.com/rtennill/scmconv/projection"
)

// Image is a decoded input raster plane, carrying both its sample
// encoding and its projection/blend/normalization metadata (§3.2).
type Image interface {
	Width() int
	Height() int
	Channels() int
	BitsPerChannel() int
	Signed() bool
	ByteOrder() binary.ByteOrder
	Projection() projection.Descriptor
	Blend() projection.Window
	// Norm returns the normalization window (norm0, norm1) the image was
	// opened with; every decoder in this package stores the values its
	// caller passes, unchanged.
	Norm() (lo, hi float64)
	At(i, j int) (coverage float64, values []float64)
	io.Closer
}

// Mapped is a raw, already-decoded sample plane held in a heap buffer of
// (bits, signed, byte order)-encoded bytes. Every concrete decoder in this
// package builds one; none of them memory-maps its input (OpenPDS reads the
// whole image file into memory). Grounded on the ownership/close discipline the
// teacher applies to its tiff.ReadAtReadSeeker file handles in
// cmd/cogger/main.go: open once, defer-close, thread the handle through.
type Mapped struct {
	Buf     []byte
	W, H, C int
	Bits    int
	SignedV bool
	OrderV  binary.ByteOrder

	ProjV  projection.Descriptor
	BlendV projection.Window

	Norm0, Norm1 float64

	closer func() error
}

func (m *Mapped) Width() int                        { return m.W }
func (m *Mapped) Height() int                       { return m.H }
func (m *Mapped) Channels() int                      { return m.C }
func (m *Mapped) BitsPerChannel() int                { return m.Bits }
func (m *Mapped) Signed() bool                       { return m.SignedV }
func (m *Mapped) ByteOrder() binary.ByteOrder        { return m.OrderV }
func (m *Mapped) Projection() projection.Descriptor  { return m.ProjV }
func (m *Mapped) Blend() projection.Window           { return m.BlendV }
func (m *Mapped) Norm() (float64, float64)           { return m.Norm0, m.Norm1 }

// Close runs the decoder's release hook, if any (OpenTIFF's closes its
// input file); it is a no-op for planes built without one.
func (m *Mapped) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer()
}

// At implements the "pixel" operation (§4.B): out-of-bounds access yields
// zero coverage and zero values; otherwise each channel is decoded
// according to (bits, signed, byte order), with the 32-bit saturation-code
// table applied.
func (m *Mapped) At(i, j int) (float64, []float64) {
	values := make([]float64, m.C)
	if i < 0 || i >= m.H || j < 0 || j >= m.W {
		return 0, values
	}
	bpp := m.Bits / 8
	stride := m.W * m.C * bpp
	base := i*stride + j*m.C*bpp
	for c := 0; c < m.C; c++ {
		values[c] = decodeSample(m.Buf[base+c*bpp:base+(c+1)*bpp], m.Bits, m.SignedV, m.OrderV)
	}
	return 1, values
}
