package tiff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, binary.LittleEndian, 1234))
	h, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), h.FirstIFDOffs)
}

func TestIFDRoundTrip(t *testing.T) {
	p := &PageIFD{
		ImageWidth:                10,
		ImageLength:               10,
		BitsPerSample:             []uint16{8},
		Compression:               CompressionZlib,
		PhotometricInterpretation: PhotometricBlackIsZero,
		StripOffsets:              []uint64{1000, 2000, 3000, 4000, 5000},
		SamplesPerPixel:           1,
		RowsPerStrip:              2,
		StripByteCounts:           []uint32{100, 100, 100, 100, 100},
		PlanarConfiguration:       PlanarConfigContig,
		SampleFormat:              []uint16{1},
		PageIndex:                 3,
		MinimaType:                TLong8,
		MaximaType:                TLong8,
		Next:                      0,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteIFD(&buf, binary.LittleEndian, p, 16))

	full := append(make([]byte, 16), buf.Bytes()...)
	r := bytes.NewReader(full)
	fields, next, err := ReadIFD(r, binary.LittleEndian, 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), next)

	so, err := ReadArray(r, binary.LittleEndian, fields[TagStripOffsets])
	require.NoError(t, err)
	assert.Equal(t, []uint64{1000, 2000, 3000, 4000, 5000}, so)

	sbc, err := ReadArray(r, binary.LittleEndian, fields[TagStripByteCounts])
	require.NoError(t, err)
	assert.Equal(t, []uint64{100, 100, 100, 100, 100}, sbc)

	assert.Equal(t, uint64(3), fields[TagPageIndex].Value)
}

func TestStripRoundTrip8u(t *testing.T) {
	g := Geometry{N: 2, Channels: 1, Bits: 8, RowsPerStrip: 2, Norm0: 0, Norm1: 1, Order: binary.LittleEndian}
	side := g.Side()
	page := make([]float64, side*side)
	for i := range page {
		page[i] = 0.5
	}
	strips, err := g.EncodeStrips(page)
	require.NoError(t, err)
	assert.Len(t, strips, g.StripCount())

	got, err := g.DecodeStrips(strips)
	require.NoError(t, err)
	for _, v := range got {
		assert.InDelta(t, 0.5, v, 1.0/255)
	}
}

func TestStripRoundTrip32f(t *testing.T) {
	g := Geometry{N: 2, Channels: 1, Bits: 32, RowsPerStrip: 2, Norm0: 0, Norm1: 1, Order: binary.LittleEndian}
	side := g.Side()
	page := make([]float64, side*side)
	for i := range page {
		page[i] = 0.123456
	}
	strips, err := g.EncodeStrips(page)
	require.NoError(t, err)
	got, err := g.DecodeStrips(strips)
	require.NoError(t, err)
	for _, v := range got {
		assert.InDelta(t, 0.123456, v, 1e-6)
	}
}
