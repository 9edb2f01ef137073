package decode

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/rtennill/scmconv/projection"
	"github.com/rtennill/scmconv/scmerr"
)

func isGrayModel(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	default:
		return false
	}
}

// openStdlib decodes any image/... format and flattens it to an 8-bit
// Mapped plane: one channel for grayscale sources, three (R,G,B, alpha
// dropped) otherwise. JPEG/PNG carry no projection metadata of their own,
// so they get the default full-image spheremap descriptor (§4.C); only
// the blend window and normalization come from the caller (the CLI's
// -lat0.../-norm0... flags, §6.1).
func openStdlib(path string, decodeFn func(io.Reader) (image.Image, error), win projection.Window, norm0, norm1 float64) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, scmerr.New(scmerr.KindIO, "open image", err)
	}
	defer f.Close()

	img, err := decodeFn(f)
	if err != nil {
		return nil, scmerr.New(scmerr.KindFormat, "decode image", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := isGrayModel(img)
	channels := 3
	if gray {
		channels = 1
	}

	buf := make([]byte, w*h*channels)
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				buf[idx] = g.Y
				idx++
				continue
			}
			r, g, b, _ := img.At(x, y).RGBA()
			buf[idx] = byte(r >> 8)
			buf[idx+1] = byte(g >> 8)
			buf[idx+2] = byte(b >> 8)
			idx += 3
		}
	}

	return &Mapped{
		Buf: buf, W: w, H: h, C: channels, Bits: 8, SignedV: false, OrderV: binary.BigEndian,
		ProjV:  projection.Descriptor{Kind: projection.Default, Width: w, Height: h},
		BlendV: win, Norm0: norm0, Norm1: norm1,
	}, nil
}

// OpenJPEG decodes a JPEG input raster (§3.2's JPEG decoder).
func OpenJPEG(path string, win projection.Window, norm0, norm1 float64) (*Mapped, error) {
	return openStdlib(path, jpeg.Decode, win, norm0, norm1)
}

// OpenPNG decodes a PNG input raster (§3.2's PNG decoder).
func OpenPNG(path string, win projection.Window, norm0, norm1 float64) (*Mapped, error) {
	return openStdlib(path, png.Decode, win, norm0, norm1)
}
