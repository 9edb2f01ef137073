package decode

import (
	"encoding/binary"
	"math"
)

// decodeSample converts one raw sample (bits wide, signed or not, in the
// given byte order) to a unit-range float, applying the PDS/ISIS 32-bit
// special-pixel saturation codes (§4.B) ahead of the ordinary integer or
// IEEE-float decode.
func decodeSample(b []byte, bits int, signed bool, order binary.ByteOrder) float64 {
	switch bits {
	case 8:
		if signed {
			return float64(int8(b[0])) / 127.0
		}
		return float64(b[0]) / 255.0
	case 16:
		if signed {
			return float64(int16(order.Uint16(b))) / 32767.0
		}
		return float64(order.Uint16(b)) / 65535.0
	case 32:
		raw := order.Uint32(b)
		switch raw {
		case 0xFF7FFFFB, 0xFF7FFFFC, 0xFF7FFFFD:
			return 0
		case 0xFF7FFFFE, 0xFF7FFFFF:
			return 1
		}
		v := float64(math.Float32frombits(raw))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	default:
		return 0
	}
}

// Linear performs a bilinear sample of img at a continuous (i, j) position,
// using the four surrounding integer corners (§4.B). Coverage is 1 if any
// corner carried coverage, 0 otherwise; the returned values are the 2D
// lerp of the four corners' own values regardless of per-corner coverage —
// when the combined coverage is zero every returned value is zero.
func Linear(img Image, i, j float64) (coverage float64, values []float64) {
	i0 := math.Floor(i)
	j0 := math.Floor(j)
	ti := i - i0
	tj := j - j0

	c00, v00 := img.At(int(i0), int(j0))
	c10, v10 := img.At(int(i0), int(j0)+1)
	c01, v01 := img.At(int(i0)+1, int(j0))
	c11, v11 := img.At(int(i0)+1, int(j0)+1)

	if c00 == 0 && c10 == 0 && c01 == 0 && c11 == 0 {
		return 0, make([]float64, img.Channels())
	}

	channels := img.Channels()
	values = make([]float64, channels)
	for k := 0; k < channels; k++ {
		top := v00[k]*(1-tj) + v10[k]*tj
		bot := v01[k]*(1-tj) + v11[k]*tj
		values[k] = top*(1-ti) + bot*ti
	}
	return 1, values
}
