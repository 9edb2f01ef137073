package tiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"

	"github.com/rtennill/scmconv/scmerr"
)

// Geometry describes the fixed, per-file parameters every page shares
// (§3.3): page side n, channel count, bit depth, signedness, rows per
// strip, and the normalization window used when quantizing floats to the
// container's native sample encoding.
type Geometry struct {
	N            int
	Channels     int
	Bits         int
	Signed       bool
	RowsPerStrip int
	Norm0, Norm1 float64
	Order        binary.ByteOrder
}

// Side returns n+2, the padded page side including its one-sample border.
func (g Geometry) Side() int { return g.N + 2 }

// StripCount returns sc = (n+2)/rows_per_strip.
func (g Geometry) StripCount() int {
	return g.Side() / g.RowsPerStrip
}

// SampleFormatTag returns the TIFF SampleFormat value for this geometry's
// (bits, signed) pair.
func (g Geometry) SampleFormatTag() uint16 {
	switch {
	case g.Bits == 32:
		return 3 // IEEE float
	case g.Signed:
		return 2 // signed int
	default:
		return 1 // unsigned int
	}
}

// encodeSample quantizes a float (in the image's own working range) to the
// container's native (bits, signed) encoding. Integer encodings first map
// the normalization window onto their full range; 32-bit samples are stored
// as float32 without normalization.
func (g Geometry) encodeSample(v float64) []byte {
	span := g.Norm1 - g.Norm0
	t := 0.0
	if span != 0 {
		t = (v - g.Norm0) / span
	}
	buf := make([]byte, g.Bits/8)
	switch g.Bits {
	case 8:
		if g.Signed {
			buf[0] = byte(int8(clampRound(t*127, -127, 127)))
		} else {
			buf[0] = byte(clampRound(t*255, 0, 255))
		}
	case 16:
		if g.Signed {
			g.Order.PutUint16(buf, uint16(int16(clampRound(t*32767, -32767, 32767))))
		} else {
			g.Order.PutUint16(buf, uint16(clampRound(t*65535, 0, 65535)))
		}
	case 32:
		g.Order.PutUint32(buf, math.Float32bits(float32(v)))
	}
	return buf
}

// EncodeValue quantizes a single scalar (e.g. a page's minima/maxima
// channel value) to the container's native (bits, signed) encoding, the
// same conversion EncodeStrips applies to every sample.
func (g Geometry) EncodeValue(v float64) []byte {
	return g.encodeSample(v)
}

// DecodeValue reverses EncodeValue.
func (g Geometry) DecodeValue(b []byte) float64 {
	return g.decodeSample(b)
}

func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decodeSample reverses encodeSample.
func (g Geometry) decodeSample(b []byte) float64 {
	switch g.Bits {
	case 8:
		if g.Signed {
			return float64(int8(b[0]))/127.0*(g.Norm1-g.Norm0) + g.Norm0
		}
		return float64(b[0])/255.0*(g.Norm1-g.Norm0) + g.Norm0
	case 16:
		if g.Signed {
			return float64(int16(g.Order.Uint16(b)))/32767.0*(g.Norm1-g.Norm0) + g.Norm0
		}
		return float64(g.Order.Uint16(b)) / 65535.0 * (g.Norm1 - g.Norm0) + g.Norm0
	case 32:
		return float64(math.Float32frombits(g.Order.Uint32(b)))
	}
	return 0
}

// EncodeStrips zlib-compresses each of g.StripCount() horizontal bands of
// rows from the float page (row-major, g.Channels floats per pixel) and
// returns one compressed buffer per strip.
func (g Geometry) EncodeStrips(page []float64) ([][]byte, error) {
	side := g.Side()
	rows := g.RowsPerStrip
	sc := g.StripCount()
	bps := g.Bits / 8
	strips := make([][]byte, sc)
	for s := 0; s < sc; s++ {
		raw := make([]byte, rows*side*g.Channels*bps)
		o := 0
		base := s * rows * side * g.Channels
		for i := 0; i < rows*side*g.Channels; i++ {
			copy(raw[o:], g.encodeSample(page[base+i]))
			o += bps
		}
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, scmerr.New(scmerr.KindCodec, "deflate strip", err)
		}
		if err := zw.Close(); err != nil {
			return nil, scmerr.New(scmerr.KindCodec, "deflate strip", err)
		}
		strips[s] = buf.Bytes()
	}
	return strips, nil
}

// DecodeStrips inflates the given compressed strips and reassembles the
// float page.
func (g Geometry) DecodeStrips(strips [][]byte) ([]float64, error) {
	side := g.Side()
	rows := g.RowsPerStrip
	bps := g.Bits / 8
	page := make([]float64, side*side*g.Channels)
	for s, data := range strips {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, scmerr.New(scmerr.KindCodec, "inflate strip", err)
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, scmerr.New(scmerr.KindCodec, "inflate strip", err)
		}
		zr.Close()
		base := s * rows * side * g.Channels
		n := rows * side * g.Channels
		for i := 0; i < n; i++ {
			page[base+i] = g.decodeSample(raw[i*bps : i*bps+bps])
		}
	}
	return page, nil
}
