package resample

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtennill/scmconv/decode"
	"github.com/rtennill/scmconv/geom"
	"github.com/rtennill/scmconv/projection"
)

func sphereMapImage(w, h int, fill byte) *decode.Mapped {
	buf := make([]byte, w*h)
	for i := range buf {
		buf[i] = fill
	}
	return &decode.Mapped{
		Buf: buf, W: w, H: h, C: 1, Bits: 8, OrderV: binary.BigEndian,
		ProjV: projection.Descriptor{Kind: projection.Default, Width: w, Height: h},
	}
}

func TestPixelHitsWholeSphereImage(t *testing.T) {
	img := sphereMapImage(64, 32, 200)
	corners := geom.PageCorners(0)
	hits, values := Pixel(img, corners, 4, 1, 1)
	require.Equal(t, 5, hits)
	assert.InDelta(t, 200.0/255, values[0], 1e-6)
}

func TestPixelZeroCoverageYieldsZeroValues(t *testing.T) {
	img := sphereMapImage(64, 32, 200)
	img.W, img.H = 0, 0 // every tap now misses
	corners := geom.PageCorners(0)
	hits, values := Pixel(img, corners, 4, 0, 0)
	assert.Equal(t, 0, hits)
	assert.Equal(t, []float64{0}, values)
}

func TestPageAssemblesInteriorWithBorder(t *testing.T) {
	img := sphereMapImage(64, 32, 255)
	corners := geom.PageCorners(0)
	n := 4
	buf, hits := Page(img, n, corners, 2)
	assert.Greater(t, hits, int64(0))

	side := n + 2
	// Interior cells should all have picked up near-full-scale values;
	// the border ring stays zero since Page never writes it.
	center := buf[(2*side+2)*1]
	assert.Greater(t, center, 0.9)
	borderCorner := buf[(0*side+0)*1]
	assert.Equal(t, 0.0, borderCorner)
}
