package decode

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rtennill/scmconv/projection"
)

func TestDecodeSample8BitRoundTrip(t *testing.T) {
	assert.InDelta(t, 1.0, decodeSample([]byte{255}, 8, false, binary.BigEndian), 1e-9)
	assert.InDelta(t, 0.0, decodeSample([]byte{0}, 8, false, binary.BigEndian), 1e-9)
}

func TestDecodeSample32FloatSaturationCodes(t *testing.T) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], 0xFF7FFFFB)
	assert.Equal(t, 0.0, decodeSample(b[:], 32, false, binary.BigEndian))
	binary.BigEndian.PutUint32(b[:], 0xFF7FFFFE)
	assert.Equal(t, 1.0, decodeSample(b[:], 32, false, binary.BigEndian))
}

func TestDecodeSample32FloatOrdinaryValue(t *testing.T) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(0.5))
	assert.InDelta(t, 0.5, decodeSample(b[:], 32, false, binary.BigEndian), 1e-6)
}

func newMapped(w, h, c int, fill byte) *Mapped {
	buf := make([]byte, w*h*c)
	for i := range buf {
		buf[i] = fill
	}
	return &Mapped{Buf: buf, W: w, H: h, C: c, Bits: 8, OrderV: binary.BigEndian, ProjV: projection.Descriptor{}}
}

func TestMappedAtOutOfBoundsIsZeroCoverage(t *testing.T) {
	m := newMapped(4, 4, 1, 128)
	cov, values := m.At(-1, 0)
	assert.Equal(t, 0.0, cov)
	assert.Equal(t, []float64{0}, values)
}

func TestMappedAtInBounds(t *testing.T) {
	m := newMapped(4, 4, 1, 255)
	cov, values := m.At(2, 2)
	assert.Equal(t, 1.0, cov)
	assert.InDelta(t, 1.0, values[0], 1e-9)
}

func TestLinearAveragesFourCorners(t *testing.T) {
	m := newMapped(4, 4, 1, 0)
	m.Buf[0*4+1] = 255 // (0,1)
	m.Buf[1*4+1] = 255 // (1,1)
	cov, values := Linear(m, 0.5, 1.0)
	assert.Equal(t, 1.0, cov)
	assert.InDelta(t, 1.0, values[0], 1e-9)
}

func TestLinearZeroCoverageWhenAllCornersOutOfBounds(t *testing.T) {
	m := newMapped(4, 4, 1, 255)
	cov, values := Linear(m, -5, -5)
	assert.Equal(t, 0.0, cov)
	assert.Equal(t, []float64{0}, values)
}
